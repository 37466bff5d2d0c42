package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsbtrack/internal/adsb"
	"adsbtrack/internal/app"
	"adsbtrack/internal/bits"
	"adsbtrack/internal/recording"
	"adsbtrack/internal/registry"
)

func TestRootCmd_Version(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Version: "+app.Version)
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	flags := cmd.Flags()

	tests := []struct {
		name     string
		defValue string
	}{
		{"input", "-"},
		{"format", app.FormatSamples},
		{"log-dir", "./logs"},
		{"log-pattern", "adsb_%Y-%m-%d.log"},
		{"utc", "true"},
		{"purge-interval", "1s"},
		{"stats-interval", "30s"},
		{"realtime", "false"},
		{"verbose", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := flags.Lookup(tt.name)
			require.NotNil(t, f)
			assert.Equal(t, tt.defValue, f.DefValue)
		})
	}
}

func TestRootCmd_InvalidFormat(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "iq"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown input format")
}

func TestResolveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adsbtrack.yaml")
	content := "input: from-file.rec\ninput_format: recording\nlog_dir: /var/log/adsb\npurge_interval: 5s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--config", path, "--log-dir", "/tmp/sbs", "--verbose"}))

	configPath, err := cmd.Flags().GetString("config")
	require.NoError(t, err)

	flagConfig := app.DefaultConfig()
	flagConfig.LogDir = "/tmp/sbs"
	flagConfig.Verbose = true

	config, err := resolveConfig(configPath, cmd.Flags(), flagConfig)
	require.NoError(t, err)

	// Values from the file
	assert.Equal(t, "from-file.rec", config.Input)
	assert.Equal(t, app.FormatRecording, config.InputFormat)
	assert.Equal(t, 5*time.Second, config.PurgeInterval)

	// Flags that were set win
	assert.Equal(t, "/tmp/sbs", config.LogDir)
	assert.True(t, config.Verbose)
}

func TestResolveConfig_NoFile(t *testing.T) {
	cmd := newRootCmd()
	flagConfig := app.DefaultConfig()
	flagConfig.Input = "flight.rec"

	config, err := resolveConfig("", cmd.Flags(), flagConfig)
	require.NoError(t, err)
	assert.Equal(t, flagConfig, config)

	_, err = resolveConfig(filepath.Join(t.TempDir(), "missing.yaml"), cmd.Flags(), flagConfig)
	assert.Error(t, err)
}

func TestRootCmd_RunRecording(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "flight.rec")

	f, err := os.Create(input)
	require.NoError(t, err)
	w := recording.NewWriter(f)
	frame, ok := adsb.NewRawFrame(0, bits.MustParseHex("8D4840D6202CC371C32CE0576098").Bytes())
	require.True(t, ok)
	require.NoError(t, w.Write(frame))
	require.NoError(t, w.Flush())
	require.NoError(t, f.Close())

	logDir := filepath.Join(dir, "logs")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--input", input, "--format", "recording", "--log-dir", logDir})
	require.NoError(t, cmd.Execute())

	files, err := filepath.Glob(filepath.Join(logDir, "adsb_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "MSG,1,1,1,4840D6,")
	assert.Contains(t, string(content), "KLM1023")
}

func TestRegistryCmd_Import(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "aircraft.csv")
	dbPath := filepath.Join(dir, "aircraft.db")
	content := "4840D6,PH-BXA,B738,BOEING 737-800,L2J,M\n40621D,G-EZBF,A319,AIRBUS A-319,L2J,M\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(content), 0644))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"registry", "import", "--registry", dbPath, csvPath})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Imported 2 aircraft")

	db, err := registry.OpenSQLiteDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	info, err := db.Lookup("4840D6")
	require.NoError(t, err)
	assert.Equal(t, "PH-BXA", info.Registration)
	assert.Equal(t, "B738", info.TypeDesignator)
	assert.Equal(t, registry.WakeMedium, info.WakeTurbulence)
}

func TestRegistryCmd_ImportStdin(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "aircraft.db")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("485020,EI-DCL,B738,BOEING 737-800,L2J,M\n"))
	cmd.SetArgs([]string{"registry", "import", "--registry", dbPath, "-"})
	require.NoError(t, cmd.Execute())

	db, err := registry.OpenSQLiteDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	info, err := db.Lookup("485020")
	require.NoError(t, err)
	assert.Equal(t, "EI-DCL", info.Registration)
}

func TestRegistryCmd_Add(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "aircraft.db")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"registry", "add", "--registry", dbPath, "4D2228", "9H-QBC", "B738", "BOEING 737-800", "L2J", "H"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Added 4D2228")

	db, err := registry.OpenSQLiteDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	info, err := db.Lookup("4D2228")
	require.NoError(t, err)
	assert.Equal(t, "9H-QBC", info.Registration)
	assert.Equal(t, registry.WakeHeavy, info.WakeTurbulence)
}

func TestRegistryCmd_Errors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "aircraft.db")

	tests := []struct {
		name string
		args []string
	}{
		{"Missing registry flag", []string{"registry", "import", "aircraft.csv"}},
		{"Missing CSV file", []string{"registry", "import", "--registry", dbPath, filepath.Join(t.TempDir(), "missing.csv")}},
		{"Invalid address", []string{"registry", "add", "--registry", dbPath, "XYZ", "9H-QBC", "B738", "BOEING 737-800", "L2J", "H"}},
		{"Invalid registration", []string{"registry", "add", "--registry", dbPath, "4D2228", "", "B738", "BOEING 737-800", "L2J", "H"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)
			assert.Error(t, cmd.Execute())
		})
	}
}
