package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"rrtnav/scenario"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Port, test.ShouldEqual, 8080)
	test.That(t, cfg.Realtime, test.ShouldBeTrue)
	test.That(t, cfg.Retries, test.ShouldEqual, 2)
	test.That(t, cfg.Origins(), test.ShouldResemble, []string{"*"})
}

func TestLoadEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	test.That(t, os.WriteFile(envFile, []byte("RRTNAV_SEED=99\nRRTNAV_PORT=9000\n"), 0o600), test.ShouldBeNil)
	t.Cleanup(func() { os.Unsetenv("RRTNAV_SEED") })
	t.Setenv("RRTNAV_PORT", "7000")
	t.Setenv("RRTNAV_MAX_ITERATIONS", "500")
	t.Setenv("RRTNAV_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load(envFile)
	test.That(t, err, test.ShouldBeNil)
	// the environment wins over the dotenv file
	test.That(t, cfg.Port, test.ShouldEqual, 7000)
	test.That(t, cfg.Seed, test.ShouldEqual, int64(99))
	test.That(t, cfg.Origins(), test.ShouldResemble, []string{"http://a.test", "http://b.test"})

	s := scenario.Default()
	cfg.ApplyTo(s)
	test.That(t, s.Planner.Seed, test.ShouldEqual, int64(99))
	test.That(t, s.Planner.MaxIterations, test.ShouldEqual, 500)
}

func TestLoadBadValue(t *testing.T) {
	t.Setenv("RRTNAV_PORT", "eighty")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLoadScenario(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := &Config{MaxIterations: 10}
	s, err := cfg.LoadScenario(logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Name, test.ShouldEqual, "playground")
	test.That(t, s.Planner.MaxIterations, test.ShouldEqual, 10)

	file := filepath.Join(t.TempDir(), "s.json")
	test.That(t, scenario.Save(scenario.New(10, 10), file, logger), test.ShouldBeNil)
	cfg.Scenario = file
	s, err = cfg.LoadScenario(logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Width, test.ShouldEqual, 10.0)

	cfg.Scenario = filepath.Join(t.TempDir(), "nope.json")
	_, err = cfg.LoadScenario(logger)
	test.That(t, err, test.ShouldNotBeNil)
}
