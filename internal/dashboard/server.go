package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/qepting91/recordsync/internal/domain"
	"github.com/qepting91/recordsync/internal/screen"
)

// Screen is the part of *screen.Screen the web view drives.
type Screen interface {
	Items() domain.Collection
	State() screen.State
	Fetch(ctx context.Context, kind domain.Kind) domain.Collection
	Delete(ctx context.Context)
}

type row struct {
	Label  string
	Detail string
}

type pageData struct {
	Kinds []domain.Kind
	Rows  []row
	State string
	Empty string
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>My Data App</title></head>
<body>
<h1>My Data App</h1>
<div>
{{- range .Kinds}}
<form method="post" action="/fetch/{{.}}" style="display:inline"><button>{{.}}</button></form>
{{- end}}
</div>
<form method="post" action="/delete"><button>Delete Local Data</button></form>
<p><small>{{.State}}</small></p>
{{- if .Rows}}
<ul>
{{- range .Rows}}
<li><strong>{{.Label}}</strong><br>{{.Detail}}</li>
{{- end}}
</ul>
<iframe src="/chart" width="960" height="540" style="border:0"></iframe>
{{- else}}
<p>{{.Empty}}</p>
{{- end}}
</body>
</html>
`))

// NewHandler routes the list page, the chart, the JSON view and the triggers.
func NewHandler(s Screen) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		items := s.Items()
		data := pageData{Kinds: domain.Kinds, State: s.State().String(), Empty: screen.EmptyMessage}
		for _, rec := range items {
			data.Rows = append(data.Rows, row{Label: rec.Label(), Detail: rec.Detail()})
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := page.Execute(w, data); err != nil {
			slog.Error("Render page failed", "err", err)
		}
	})

	mux.HandleFunc("GET /chart", func(w http.ResponseWriter, r *http.Request) {
		bar := fieldCoverage(s.Items())
		if err := bar.Render(w); err != nil {
			slog.Error("Render chart failed", "err", err)
		}
	})

	mux.HandleFunc("GET /api/records", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.Items()); err != nil {
			slog.Error("Encode records failed", "err", err)
		}
	})

	mux.HandleFunc("POST /fetch/{kind}", func(w http.ResponseWriter, r *http.Request) {
		kind, err := domain.ParseKind(r.PathValue("kind"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// The action runs to completion even if the client goes away.
		s.Fetch(context.WithoutCancel(r.Context()), kind)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	mux.HandleFunc("POST /delete", func(w http.ResponseWriter, r *http.Request) {
		s.Delete(context.WithoutCancel(r.Context()))
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	return mux
}

// fieldCoverage charts how many displayed records carry each field.
func fieldCoverage(items domain.Collection) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Field Coverage", Subtitle: "records carrying each field"}),
		charts.WithThemeOpts(opts.Theme{Theme: types.ThemeWesteros}),
	)

	fields, counts := coverageCounts(items)
	barY := make([]opts.BarData, 0, len(fields))
	for _, n := range counts {
		barY = append(barY, opts.BarData{Value: n})
	}
	bar.SetXAxis(fields).AddSeries("Records", barY)
	return bar
}

// coverageCounts returns field names in sorted order with their counts.
func coverageCounts(items domain.Collection) ([]string, []int) {
	seen := make(map[string]int)
	for _, rec := range items {
		for field := range rec {
			seen[field]++
		}
	}

	fields := make([]string, 0, len(seen))
	for field := range seen {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	counts := make([]int, len(fields))
	for i, field := range fields {
		counts[i] = seen[field]
	}
	return fields, counts
}

// StartServer serves h on addr until ctx is cancelled.
func StartServer(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
