package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/shopfloor/internal/config"
	"github.com/Spok95/shopfloor/internal/workflow"
)

func testApp(cfg config.Config, err error) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &App{
		Out: out,
		loadConfig: func(string) (config.Config, error) {
			return cfg, err
		},
	}, out
}

func TestRootCommand_Subcommands(t *testing.T) {
	app, _ := testApp(config.Config{}, nil)
	root := NewRootCommand(app)

	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "migrate")
	assert.Contains(t, names, "stock")
}

func TestStockCommand_InvalidID(t *testing.T) {
	app, _ := testApp(config.Config{}, nil)
	root := NewRootCommand(app)
	root.SetArgs([]string{"stock", "abc"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid workcenter id")
}

func TestStockCommand_ConfigError(t *testing.T) {
	app, _ := testApp(config.Config{}, errors.New("no config"))
	root := NewRootCommand(app)
	root.SetArgs([]string{"stock", "100"})

	assert.EqualError(t, root.Execute(), "no config")
}

func TestStockCommand_PrintsSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/workcenters/100/stock/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"workcenter_location": "Hall A",
			"materials": [{"material__id": 1, "material__name": "PE granules", "material__unit_of_measure": "kg", "quantity": "12.5"}],
			"products": [{"product__id": 2, "product__name": "Roll 40mm", "quantity": "0.5"}]
		}`))
	}))
	defer srv.Close()

	var cfg config.Config
	cfg.Backend.BaseURL = srv.URL
	cfg.Backend.Timeout = 5 * time.Second
	cfg.Workflow.LowStockThreshold = 1
	cfg.App.Env = "test"

	app, out := testApp(cfg, nil)
	root := NewRootCommand(app)
	root.SetArgs([]string{"stock", "100"})
	root.SetContext(context.Background())

	require.NoError(t, root.Execute())
	text := out.String()
	assert.Contains(t, text, "Workcenter 100")
	assert.Contains(t, text, "Hall A")
	assert.Contains(t, text, "PE granules")
	assert.Contains(t, text, "Roll 40mm")
}

func TestRenderStockTable(t *testing.T) {
	snap := &workflow.StockSnapshot{
		WorkcenterID: 7,
		Entries: []workflow.StockEntry{
			{ID: 2, Name: "P1", Type: workflow.ItemProduct, Available: decimal.NewFromInt(3), Unit: "pcs"},
			{ID: 1, Name: "M1", Type: workflow.ItemMaterial, Available: decimal.RequireFromString("0.5"), Unit: "kg"},
		},
	}
	text := renderStockTable(snap, decimal.NewFromInt(1))

	assert.Contains(t, text, "Workcenter 7")
	assert.Contains(t, text, "AVAILABLE")
	assert.Less(t, strings.Index(text, "M1"), strings.Index(text, "P1"))

	empty := renderStockTable(&workflow.StockSnapshot{WorkcenterID: 7}, decimal.Zero)
	assert.Contains(t, empty, "no materials or products available")
}

func TestBotOptions(t *testing.T) {
	var cfg config.Config
	cfg.Telegram.AdminChatID = 42
	cfg.Workflow.WorkcenterTypes = []string{"EXTRUDER", "", "SLITTER"}
	cfg.Workflow.OrderStatus = "in_progress"
	cfg.Workflow.LowStockThreshold = 2.5
	cfg.Workflow.HistoryLimit = 5
	cfg.Backend.Timeout = 3 * time.Second

	opts := botOptions(cfg)
	assert.Equal(t, int64(42), opts.AdminChatID)
	assert.Equal(t, []workflow.WorkcenterType{workflow.WCExtruder, workflow.WCSlitter}, opts.WorkcenterTypes)
	assert.True(t, opts.LowStockThreshold.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, 3*time.Second, opts.RequestTimeout)
}
