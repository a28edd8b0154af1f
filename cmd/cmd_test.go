// File: cmd/cmd_test.go
package cmd

import (
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/arenabot/internal/config"
	"github.com/xkilldash9x/arenabot/internal/device"
	"github.com/xkilldash9x/arenabot/internal/geom"
	"github.com/xkilldash9x/arenabot/internal/orchestrator"
	"github.com/xkilldash9x/arenabot/internal/vision"
)

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := executeCommand(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "arenabot version "+Version)
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	installFakes(t)
	t.Setenv("ARENABOT_BATTLE_CHECK_EVERY", "0")
	path := writeConfig(t, fastConfig)

	_, err := executeCommand(t, "", "detect", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load or validate config")
}

func TestRunCmd(t *testing.T) {
	t.Run("PlaysAndWritesReport", func(t *testing.T) {
		f := installFakes(t)
		path := writeConfig(t, fastConfig)
		reportPath := filepath.Join(t.TempDir(), "out", "run.json")

		out, err := executeCommand(t, "", "run",
			"--config", path,
			"--games", "1",
			"--no-humanize",
			"--ok-button", "0.5, 0.9",
			"--report", reportPath)
		require.NoError(t, err)

		assert.False(t, f.cfg.Humanoid.Enabled)
		assert.Equal(t, 1, f.cfg.Battle.Games)
		assert.Len(t, f.pointer.drags, 6)
		assert.True(t, f.pointer.clickedAt(0.5, 0.9), "OK button override is used")
		assert.Contains(t, out, "games played:   1")
		assert.Contains(t, out, "cards deployed: 6")

		data, err := os.ReadFile(reportPath)
		require.NoError(t, err)
		var summary orchestrator.Summary
		require.NoError(t, jsoniter.Unmarshal(data, &summary))
		assert.Equal(t, "game", summary.Mode)
		assert.Equal(t, 1, summary.GamesPlayed)
		assert.Len(t, summary.Battles, 1)
	})

	t.Run("FlagBeatsEnvironment", func(t *testing.T) {
		f := installFakes(t)
		t.Setenv("ARENABOT_BATTLE_GAMES", "3")
		t.Setenv("ARENABOT_BATTLE_RANDOMIZE", "true")
		path := writeConfig(t, fastConfig)

		_, err := executeCommand(t, "", "run", "--config", path, "--games", "1")
		require.NoError(t, err)
		assert.Equal(t, 1, f.cfg.Battle.Games)
		assert.True(t, f.cfg.Battle.Randomize)
	})

	t.Run("WindowNotFound", func(t *testing.T) {
		f := installFakes(t)
		f.screen.found = false
		path := writeConfig(t, fastConfig)

		_, err := executeCommand(t, "", "run", "--config", path)
		assert.ErrorIs(t, err, orchestrator.ErrWindowNotFound)
		assert.Empty(t, f.pointer.clicks)
	})

	t.Run("BadButtonFlag", func(t *testing.T) {
		installFakes(t)
		path := writeConfig(t, fastConfig)

		_, err := executeCommand(t, "", "run", "--config", path, "--battle-button", "0.5")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--battle-button")

		_, err = executeCommand(t, "", "run", "--config", path, "--play-again-button", "0.5,1.7")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ui.play_again_button must lie within [0,1]")
	})
}

func TestDeployCmd(t *testing.T) {
	f := installFakes(t)
	path := writeConfig(t, fastConfig)

	out, err := executeCommand(t, "", "deploy", "--config", path, "--count", "3", "--delay", "1ms", "--random")
	require.NoError(t, err)
	assert.Len(t, f.pointer.drags, 3)
	assert.Zero(t, f.detector.calls, "continuous deploys never inspect the screen")
	assert.Contains(t, out, "continuous mode")
	assert.Contains(t, out, "cards deployed: 3")

	_, err = executeCommand(t, "", "deploy", "--config", path, "--count", "-1")
	assert.Error(t, err)
}

func TestTestDeployCmd(t *testing.T) {
	f := installFakes(t)
	path := writeConfig(t, fastConfig)

	out, err := executeCommand(t, "", "test-deploy", "--config", path, "--slot", "1", "--target", "0.5,0.5")
	require.NoError(t, err)
	require.Len(t, f.pointer.drags, 1)
	assert.Equal(t, 500, f.pointer.drags[0].to.X)
	assert.Equal(t, 1000, f.pointer.drags[0].to.Y)
	assert.Contains(t, out, "Deployed slot 1")

	_, err = executeCommand(t, "", "test-deploy", "--config", path, "--slot", "7")
	assert.Error(t, err)
}

func TestCalibrateCmd(t *testing.T) {
	f := installFakes(t)
	f.pointer.pos.X, f.pointer.pos.Y = 500, 1000
	path := writeConfig(t, fastConfig)
	savePath := filepath.Join(t.TempDir(), "calibrated.yaml")

	// Battle recorded, OK skipped, play again recorded.
	out, err := executeCommand(t, "\ns\n\n", "calibrate", "--config", path, "--save", savePath)
	require.NoError(t, err)
	assert.Contains(t, out, "battle_button = [0.500, 0.500]")
	assert.Contains(t, out, "play_again_button = [0.500, 0.500]")
	assert.Contains(t, out, "ok_button: [0.550, 0.920]", "skipped button keeps its configured position")

	saved := viper.New()
	saved.SetConfigFile(savePath)
	require.NoError(t, saved.ReadInConfig())
	assert.Equal(t, []interface{}{0.5, 0.5}, saved.Get("ui.battle_button"))
	assert.Equal(t, []interface{}{0.55, 0.92}, saved.Get("ui.ok_button"))

	cfg, err := config.NewConfigFromViper(saved)
	require.NoError(t, err, "a saved calibration is a loadable config")
	assert.Equal(t, []float64{0.5, 0.5}, cfg.UI.PlayAgainButton)
}

func TestCalibrateCmd_OutsideWindow(t *testing.T) {
	f := installFakes(t)
	f.pointer.pos.X, f.pointer.pos.Y = 1500, 100
	path := writeConfig(t, fastConfig)

	out, err := executeCommand(t, "\n", "calibrate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "outside the game window")
	assert.Contains(t, out, "battle_button: [0.531, 0.774]")
}

func TestDetectCmd(t *testing.T) {
	installFakes(t)
	path := writeConfig(t, fastConfig)

	out, err := executeCommand(t, "", "detect", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "State: battle_ended")
	assert.Contains(t, out, "yes at (550, 1840)")
	assert.Contains(t, out, "template missing")
	assert.Regexp(t, `battle_button\s+0\.750\s+0\.80\s+yes\s+no`, out, "visible to state detection, below the match confidence")
}

func TestCaptureTemplateCmd(t *testing.T) {
	t.Run("SavesCroppedRegion", func(t *testing.T) {
		f := installFakes(t)
		f.pointer.queued = []geom.Pixel{{X: 600, Y: 1900}, {X: 500, Y: 1800}}
		dir := filepath.Join(t.TempDir(), "templates")
		t.Setenv("ARENABOT_VISION_TEMPLATES_DIR", dir)
		path := writeConfig(t, fastConfig)

		out, err := executeCommand(t, "\n\n", "capture-template", "--config", path, "--name", vision.TemplateOK)
		require.NoError(t, err)
		assert.Equal(t, []image.Rectangle{image.Rect(500, 1800, 600, 1900)}, f.screen.captured, "corners in either order")
		assert.Contains(t, out, "Saved 100x100 template to "+filepath.Join(dir, "ok_button.png"))

		tmpl, ok := vision.NewTemplateStore(dir, 0.8, nil).Get(vision.TemplateOK)
		require.True(t, ok, "the saved file is a loadable template")
		assert.Equal(t, image.Rect(0, 0, 100, 100), tmpl.Image.Bounds())
	})

	t.Run("UnknownName", func(t *testing.T) {
		installFakes(t)
		path := writeConfig(t, fastConfig)
		_, err := executeCommand(t, "\n\n", "capture-template", "--config", path, "--name", "settings")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown template")
	})

	t.Run("RegionOutsideWindow", func(t *testing.T) {
		f := installFakes(t)
		f.pointer.queued = []geom.Pixel{{X: 900, Y: 100}, {X: 1200, Y: 300}}
		t.Setenv("ARENABOT_VISION_TEMPLATES_DIR", t.TempDir())
		path := writeConfig(t, fastConfig)

		_, err := executeCommand(t, "\n\n", "capture-template", "--config", path, "--name", vision.TemplateBattle)
		assert.Error(t, err)
	})

	t.Run("DegenerateRegion", func(t *testing.T) {
		f := installFakes(t)
		f.pointer.pos = geom.Pixel{X: 300, Y: 300}
		path := writeConfig(t, fastConfig)

		_, err := executeCommand(t, "\n\n", "capture-template", "--config", path, "--name", vision.TemplatePlayAgain)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too small")
		assert.Empty(t, f.screen.captured)
	})

	t.Run("AbortedInput", func(t *testing.T) {
		f := installFakes(t)
		path := writeConfig(t, fastConfig)
		_, err := executeCommand(t, "\n", "capture-template", "--config", path, "--name", vision.TemplateOK)
		assert.ErrorIs(t, err, io.EOF)
		assert.Empty(t, f.screen.captured)
	})
}

func TestWindowsCmd(t *testing.T) {
	f := installFakes(t)
	f.screen.windows = []device.WindowInfo{
		{PID: 41, Title: "PowerShell - scrcpy", Bounds: image.Rect(0, 0, 800, 600)},
		{PID: 42, Title: "ClashRoyale", Bounds: image.Rect(100, 50, 500, 850), Match: true},
	}
	path := writeConfig(t, fastConfig)

	out, err := executeCommand(t, "", "windows", "--config", path)
	require.NoError(t, err)
	assert.Regexp(t, `42\s+\*\s+400x800 at \(100,50\)\s+ClashRoyale`, out)
	assert.NotContains(t, out, "No window matches")

	f.screen.windows = f.screen.windows[:1]
	out, err = executeCommand(t, "", "windows", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, `No window matches "ClashRoyale".`)
}

func TestRunWithStopKey(t *testing.T) {
	installFakes(t)
	cfg := config.NewDefaultConfig()
	be, err := newBackend(cfg, nil)
	require.NoError(t, err)
	bot, err := newBot(cfg, be, nil)
	require.NoError(t, err)

	hotkey := &fakeHotkey{pressImmediately: true, exited: make(chan struct{})}
	summary, err := runWithStopKey(context.Background(), bot, hotkey, func(ctx context.Context) (*orchestrator.Summary, error) {
		select {
		case <-ctx.Done():
			return &orchestrator.Summary{Interrupted: true}, nil
		case <-time.After(5 * time.Second):
			return nil, context.DeadlineExceeded
		}
	})
	require.NoError(t, err)
	assert.True(t, summary.Interrupted)

	select {
	case <-hotkey.exited:
	default:
		t.Fatal("hotkey listener still running after the loop returned")
	}
}

func TestParsePair(t *testing.T) {
	pair, err := parsePair(" 0.25 ,0.75")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.75}, pair)

	_, err = parsePair("0.1,0.2,0.3")
	assert.Error(t, err)
	_, err = parsePair("a,b")
	assert.Error(t, err)
}
