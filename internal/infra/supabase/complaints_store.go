package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/boddenberg/denuncias-bfa/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// ComplaintStore implementation over PostgREST
// ============================================================

const (
	complaintsTable = "complaints"
	deadlineColumns = "id,data_inicial,prazo_inicial,data_final,prorrogacao,prorrogado_ate"

	// listWindow is the number of rows asked for per request; matches the
	// default max-rows of a Supabase project.
	listWindow = 1000
)

// writable is the row payload for inserts and updates: server-owned
// columns are left out so PostgREST fills them.
func writable(c *domain.Complaint) *domain.Complaint {
	out := *c
	out.ID = ""
	out.CreatedAt = nil
	out.UpdatedAt = nil
	return &out
}

// ListComplaints returns every row visible to the caller, newest first.
func (c *Client) ListComplaints(ctx context.Context) ([]domain.Complaint, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListComplaints")
	defer span.End()

	rows, err := c.selectAll(ctx, complaintsTable, "*", "created_at.desc,id.desc")
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("complaints.count", len(rows)))
	return rows, nil
}

// selectAll reads a table in Range windows until the exact count reported
// by PostgREST is reached. The server may cap a window below what was asked
// (max-rows), so the next offset follows the rows actually received.
func (c *Client) selectAll(ctx context.Context, table, columns, order string) ([]domain.Complaint, error) {
	all := []domain.Complaint{}
	for {
		from := len(all)
		resp, err := c.call(ctx, request{
			service: "rest",
			method:  http.MethodGet,
			path:    tablePath(table),
			query:   url.Values{"select": {columns}, "order": {order}},
			headers: map[string]string{
				"Prefer":     "count=exact",
				"Range-Unit": "items",
				"Range":      fmt.Sprintf("%d-%d", from, from+listWindow-1),
			},
		})
		if err != nil {
			return nil, err
		}

		var rows []domain.Complaint
		if err := decode("rest", resp, &rows); err != nil {
			return nil, err
		}
		all = append(all, rows...)

		total, known := parseContentRange(resp.header.Get("Content-Range"))
		switch {
		case len(rows) == 0:
			return all, nil
		case known && len(all) >= total:
			return all, nil
		case !known && len(rows) < listWindow:
			return all, nil
		}
	}
}

// GetComplaint fetches one row by id.
func (c *Client) GetComplaint(ctx context.Context, id string) (*domain.Complaint, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetComplaint")
	defer span.End()
	span.SetAttributes(attribute.String("complaint.id", id))

	q := byID(id)
	q.Set("select", "*")
	q.Set("limit", "1")
	resp, err := c.call(ctx, request{service: "rest", method: http.MethodGet, path: tablePath(complaintsTable), query: q})
	if err != nil {
		return nil, err
	}
	return firstRow(resp, id)
}

// InsertComplaint creates a row; the store issues the id and timestamps.
func (c *Client) InsertComplaint(ctx context.Context, complaint *domain.Complaint) (*domain.Complaint, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertComplaint")
	defer span.End()

	resp, err := c.call(ctx, request{
		service: "rest",
		method:  http.MethodPost,
		path:    tablePath(complaintsTable),
		body:    writable(complaint),
		headers: map[string]string{"Prefer": "return=representation"},
	})
	if err != nil {
		return nil, err
	}
	return firstRow(resp, "")
}

// UpdateComplaint replaces the writable columns of a row (last write wins).
func (c *Client) UpdateComplaint(ctx context.Context, id string, complaint *domain.Complaint) (*domain.Complaint, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateComplaint")
	defer span.End()
	span.SetAttributes(attribute.String("complaint.id", id))

	resp, err := c.call(ctx, request{
		service: "rest",
		method:  http.MethodPatch,
		path:    tablePath(complaintsTable),
		query:   byID(id),
		body:    writable(complaint),
		headers: map[string]string{"Prefer": "return=representation"},
	})
	if err != nil {
		return nil, err
	}
	return firstRow(resp, id)
}

// DeleteComplaint removes a row. Row-level security hides rows the caller
// may not delete, which surfaces here as not found.
func (c *Client) DeleteComplaint(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteComplaint")
	defer span.End()
	span.SetAttributes(attribute.String("complaint.id", id))

	resp, err := c.call(ctx, request{
		service: "rest",
		method:  http.MethodDelete,
		path:    tablePath(complaintsTable),
		query:   byID(id),
		headers: map[string]string{"Prefer": "return=representation"},
	})
	if err != nil {
		return err
	}
	_, err = firstRow(resp, id)
	return err
}

// CountComplaints asks PostgREST for the exact row count without
// transferring the rows.
func (c *Client) CountComplaints(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountComplaints")
	defer span.End()

	resp, err := c.call(ctx, request{
		service: "rest",
		method:  http.MethodGet,
		path:    tablePath(complaintsTable),
		query:   url.Values{"select": {"id"}},
		headers: map[string]string{
			"Prefer":     "count=exact",
			"Range-Unit": "items",
			"Range":      "0-0",
		},
	})
	if err != nil {
		return 0, err
	}

	n, ok := parseContentRange(resp.header.Get("Content-Range"))
	if !ok {
		return 0, &domain.ErrBackend{Service: "rest", Status: resp.status, Body: "missing count in Content-Range"}
	}
	return n, nil
}

// ListDeadlines returns every visible row projected to the deadline columns.
func (c *Client) ListDeadlines(ctx context.Context) ([]domain.Complaint, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDeadlines")
	defer span.End()

	return c.selectAll(ctx, complaintsTable, deadlineColumns, "id")
}

// GetRole reads profiles.role for a user. A user without a profile row has
// no role.
func (c *Client) GetRole(ctx context.Context, userID string) (string, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRole")
	defer span.End()

	q := byID(userID)
	q.Set("select", "role")
	q.Set("limit", "1")
	resp, err := c.call(ctx, request{service: "rest", method: http.MethodGet, path: tablePath("profiles"), query: q})
	if err != nil {
		return "", err
	}

	var rows []struct {
		Role string `json:"role"`
	}
	if err := decode("rest", resp, &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].Role, nil
}

func firstRow(resp *response, id string) (*domain.Complaint, error) {
	var rows []domain.Complaint
	if err := decode("rest", resp, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "complaint", ID: id}
	}
	return &rows[0], nil
}
