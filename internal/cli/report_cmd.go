package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/spec-kit/complaint-analytics/internal/api/dto"
)

func newReportCmd(app *App) *cobra.Command {
	var (
		flags queryFlags
		page  int
		limit int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the analytics report as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := flags.query()
			if err != nil {
				return err
			}
			q.Page, q.Limit = page, limit

			svc, err := app.Analytics(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Report(cmd.Context(), operator, q)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dto.NewReportResponse(result))
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "ward breakdown page")
	cmd.Flags().IntVar(&limit, "limit", 0, "ward breakdown page size (0 uses the default)")
	return cmd
}
