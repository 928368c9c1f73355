package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/service"
)

// AnalyticsService is the read side used by the offline commands.
type AnalyticsService interface {
	Report(ctx context.Context, identity domain.Identity, q service.AnalyticsQuery) (*service.ReportResult, error)
	Export(ctx context.Context, identity domain.Identity, q service.AnalyticsQuery, w io.Writer) (*service.ExportResult, error)
}

// App holds what the subcommands run against. Analytics is resolved lazily so
// help output never needs a database.
type App struct {
	Analytics func(ctx context.Context) (AnalyticsService, error)
	Serve     func(ctx context.Context) error
}

// operator is the identity offline commands act as.
var operator = domain.Identity{UserID: "cli", Role: domain.RoleAdministrator}

// NewRootCmd creates the top-level command and registers all subcommands.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "complaint-analytics",
		Short:         "Complaint SLA compliance and analytics service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(app),
		newReportCmd(app),
		newExportCmd(app),
	)

	return root
}

type queryFlags struct {
	from       string
	to         string
	ward       string
	types      []string
	statuses   []string
	priorities []string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "window end, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.ward, "ward", "", "restrict to one ward id")
	cmd.Flags().StringSliceVar(&f.types, "type", nil, "complaint types to include")
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "statuses to include")
	cmd.Flags().StringSliceVar(&f.priorities, "priority", nil, "priorities to include")
}

func (f *queryFlags) query() (service.AnalyticsQuery, error) {
	q := service.AnalyticsQuery{From: f.from, To: f.to, Ward: f.ward, Types: f.types}
	for _, raw := range f.statuses {
		status, ok := domain.ParseComplaintStatus(raw)
		if !ok {
			return service.AnalyticsQuery{}, fmt.Errorf("unknown status %q", raw)
		}
		q.Statuses = append(q.Statuses, status)
	}
	for _, raw := range f.priorities {
		priority, ok := domain.ParseComplaintPriority(raw)
		if !ok {
			return service.AnalyticsQuery{}, fmt.Errorf("unknown priority %q", raw)
		}
		q.Priorities = append(q.Priorities, priority)
	}
	return q, nil
}
