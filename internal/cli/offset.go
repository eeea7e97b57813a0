package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/worldclock/internal/extract"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var offsetAt string

// offsetCmd represents the offset command
var offsetCmd = &cobra.Command{
	Use:   "offset <time string>",
	Short: "Resolve the UTC offset of a weekday and local time",
	Long: `Offset works out the UTC offset of a place whose clock currently shows the
given weekday and time, the way clock page entries are resolved.

Example:
  worldclock offset "Thu 9:00 p.m."
  worldclock offset Sat 12:30 pm --at 2020-01-03T23:30:00Z`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now().UTC()
		if offsetAt != "" {
			at, err := time.Parse(time.RFC3339, offsetAt)
			if err != nil {
				return eris.Wrapf(err, "invalid --at %q", offsetAt)
			}
			now = at.UTC()
		}

		timeString := strings.Join(args, " ")
		offset, ok := extract.ResolveTimeString(timeString, now)
		if !ok {
			return eris.Errorf("cannot read %q, expected e.g. \"Thu 9:00 pm\"", timeString)
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (UTC now %s)\n", offset, now.Format("Mon 15:04"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(offsetCmd)
	offsetCmd.Flags().StringVar(&offsetAt, "at", "", "resolve against this RFC3339 instant instead of now")
}
