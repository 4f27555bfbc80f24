package power

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fernwood-labs/adsnode/internal/infrastructure/config"
)

func testConfig() config.PowerConfig {
	return config.PowerConfig{
		Rtcwake: "/usr/sbin/rtcwake",
		Mode:    "off",
		Reboot:  "/sbin/reboot",
	}
}

type call struct {
	name string
	args []string
}

func recordingRun(calls *[]call, errs map[string]error) runFunc {
	return func(_ context.Context, name string, args ...string) (string, error) {
		*calls = append(*calls, call{name: name, args: args})
		return "", errs[name]
	}
}

func TestSleep_RequestsRtcwake(t *testing.T) {
	var calls []call
	c := New(testConfig())
	c.run = recordingRun(&calls, nil)

	if err := c.Sleep(context.Background(), 5*time.Minute); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}

	if len(calls) < 1 || calls[0].name != "/usr/sbin/rtcwake" {
		t.Fatalf("first call = %+v, want rtcwake", calls)
	}

	joined := strings.Join(calls[0].args, " ")
	if !strings.Contains(joined, "-s 300") {
		t.Errorf("rtcwake args = %q, want 300 second alarm", joined)
	}
	if !strings.Contains(joined, "-m off") {
		t.Errorf("rtcwake args = %q, want configured mode", joined)
	}
}

func TestSleep_ResetFollowsReturn(t *testing.T) {
	// If execution continues past the sleep request, the board resets.
	var calls []call
	c := New(testConfig())
	c.run = recordingRun(&calls, nil)

	if err := c.Sleep(context.Background(), time.Minute); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("call count = %d, want 2 (rtcwake then reboot)", len(calls))
	}
	if calls[1].name != "/sbin/reboot" {
		t.Errorf("second call = %q, want reboot fallback", calls[1].name)
	}
}

func TestSleep_ResetRunsWhenSleepFails(t *testing.T) {
	var calls []call
	c := New(testConfig())
	c.run = recordingRun(&calls, map[string]error{
		"/usr/sbin/rtcwake": errors.New("no RTC alarm support"),
	})

	if err := c.Sleep(context.Background(), time.Minute); err != nil {
		t.Fatalf("Sleep() error = %v, want nil when reset succeeds", err)
	}
	if len(calls) != 2 || calls[1].name != "/sbin/reboot" {
		t.Errorf("calls = %+v, want rtcwake then reboot", calls)
	}
}

func TestSleep_BothPathsFail(t *testing.T) {
	var calls []call
	c := New(testConfig())
	c.run = recordingRun(&calls, map[string]error{
		"/usr/sbin/rtcwake": errors.New("no RTC"),
		"/sbin/reboot":      errors.New("permission denied"),
	})

	err := c.Sleep(context.Background(), time.Minute)
	if !errors.Is(err, ErrSleepUnavailable) {
		t.Errorf("Sleep() error = %v, want ErrSleepUnavailable", err)
	}
}

func TestSleep_MinimumOneSecond(t *testing.T) {
	var calls []call
	c := New(testConfig())
	c.run = recordingRun(&calls, nil)

	if err := c.Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}

	joined := strings.Join(calls[0].args, " ")
	if !strings.Contains(joined, "-s 1") {
		t.Errorf("rtcwake args = %q, want minimum 1 second alarm", joined)
	}
}
