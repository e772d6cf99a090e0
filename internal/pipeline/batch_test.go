package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/address-intel/internal/enrich"
	"github.com/sells-group/address-intel/internal/model"
	"github.com/sells-group/address-intel/pkg/geocode"
)

func TestProcessBatchOrderAndCounts(t *testing.T) {
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, addressPage)
	}))
	defer okSrv.Close()
	emptySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, noAddressPage)
	}))
	defer emptySrv.Close()
	deadSrv := httptest.NewServer(http.NotFoundHandler())
	deadURL := deadSrv.URL
	deadSrv.Close()

	companies := []model.Company{
		{Name: "A", Website: okSrv.URL},
		{Name: "B", Website: deadURL},
		{Name: "C", Website: emptySrv.URL},
		{Name: "D", Website: okSrv.URL},
		{Name: "E"},
		{Name: "F", Website: okSrv.URL},
	}

	p := newTestPipeline(nil, Options{Concurrency: 3})
	rows, summary := p.ProcessBatch(context.Background(), companies, ProcessOptions{})

	// Exactly one row per input, in input order.
	require.Len(t, rows, len(companies))
	for i, c := range companies {
		assert.Equal(t, c.Name, rows[i].Company.Name)
	}

	assert.Equal(t, model.StatusSuccess, rows[0].Status)
	assert.Equal(t, model.StatusFetchError, rows[1].Status)
	assert.Equal(t, model.StatusNoAddressFound, rows[2].Status)
	assert.Equal(t, model.StatusSuccess, rows[3].Status)
	assert.Equal(t, model.StatusFetchError, rows[4].Status)
	assert.Equal(t, model.StatusSuccess, rows[5].Status)

	assert.NotEmpty(t, summary.BatchID)
	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 1, summary.NoAddress)
	assert.Equal(t, 2, summary.Failed)
	assert.GreaterOrEqual(t, summary.Duration, int64(0))
}

func TestProcessBatchEmpty(t *testing.T) {
	p := newTestPipeline(nil, Options{})

	rows, summary := p.ProcessBatch(context.Background(), nil, ProcessOptions{})

	assert.Empty(t, rows)
	assert.Equal(t, 0, summary.Total)
	assert.NotEmpty(t, summary.BatchID)
}

func TestProcessBatchEnrichmentFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, addressPage)
	}))
	defer srv.Close()

	mock := &mockGeocodeClient{err: geocode.ErrQuotaExceeded}
	p := newTestPipeline(enrich.New(mock, enrich.Config{}), Options{Concurrency: 2})

	companies := []model.Company{
		{Name: "A", Website: srv.URL},
		{Name: "B", Website: srv.URL},
	}
	rows, summary := p.ProcessBatch(context.Background(), companies, ProcessOptions{})

	// Per-row enrichment failures never abort the batch.
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, model.StatusEnrichmentError, row.Status)
		assert.Equal(t, model.ErrKindQuotaExceeded, row.ErrorKind)
		require.NotNil(t, row.Address)
		assert.Equal(t, "123 Main Street", row.Address.Street)
	}
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 0, summary.Succeeded)
}
