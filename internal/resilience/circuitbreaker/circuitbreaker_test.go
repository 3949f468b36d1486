package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

var errUpstream = errors.New("upstream down")

func failN(b *Breaker, n int) {
	for range n {
		_, _ = b.Execute(func() (any, error) {
			return nil, errUpstream
		})
	}
}

func TestBreakerPassesResultsThrough(t *testing.T) {
	b := New(Defaults("passthrough"))

	got, err := b.Execute(func() (any, error) {
		return "generated", nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "generated" {
		t.Errorf("got = %v, want generated", got)
	}

	_, err = b.Execute(func() (any, error) {
		return nil, errUpstream
	})
	if !errors.Is(err, errUpstream) {
		t.Errorf("err = %v, want the upstream error unchanged", err)
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, a lone failure must not trip the breaker", b.State())
	}
}

func TestBreakerLifecycle(t *testing.T) {
	b := New(Config{
		Name:           "lifecycle",
		HalfOpenProbes: 2,
		ResetInterval:  10 * time.Second,
		Cooldown:       100 * time.Millisecond,
		TripRatio:      0.5,
		MinSamples:     4,
	})

	if b.State() != gobreaker.StateClosed {
		t.Fatalf("initial state = %v, want Closed", b.State())
	}

	// 4連続失敗で失敗率100%、サンプル数も足りるので開く
	failN(b, 4)
	if !b.IsOpen() {
		t.Fatalf("state = %v after failures, want Open", b.State())
	}

	// 開いている間は関数を呼ばずに即座に拒否する
	_, openErr := b.Execute(func() (any, error) {
		t.Error("fn must not run while the breaker is open")
		return nil, nil
	})
	if !errors.Is(openErr, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want ErrOpenState", openErr)
	}

	// クールダウン経過でhalf-openになり、プローブを通す
	time.Sleep(130 * time.Millisecond)
	if _, err := b.Execute(func() (any, error) { return "probe", nil }); err != nil {
		t.Fatalf("first half-open probe: %v", err)
	}
	if b.State() != gobreaker.StateHalfOpen {
		t.Fatalf("state = %v after one probe, want HalfOpen until enough probes succeed", b.State())
	}

	if _, err := b.Execute(func() (any, error) { return "probe", nil }); err != nil {
		t.Fatalf("second half-open probe: %v", err)
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("state = %v after successful probes, want Closed", b.State())
	}
}

func TestBreakerIgnoresSmallSamples(t *testing.T) {
	b := New(Config{
		Name:           "small-sample",
		HalfOpenProbes: 3,
		ResetInterval:  10 * time.Second,
		Cooldown:       time.Second,
		TripRatio:      0.5,
		MinSamples:     10,
	})

	// 失敗率100%でもサンプル数が床に届かなければ判定しない
	failN(b, 9)
	if b.State() != gobreaker.StateClosed {
		t.Errorf("state = %v below the sample floor, want Closed", b.State())
	}
}

func TestPresets(t *testing.T) {
	cases := map[string]struct {
		got  Config
		want Config
	}{
		"default": {
			got: Defaults("probe"),
			want: Config{Name: "probe", HalfOpenProbes: 3, ResetInterval: 30 * time.Second,
				Cooldown: time.Minute, TripRatio: 0.6, MinSamples: 5},
		},
		"claude": {
			got: ClaudeConfig(),
			want: Config{Name: "claude-api", HalfOpenProbes: 3, ResetInterval: 30 * time.Second,
				Cooldown: time.Minute, TripRatio: 0.6, MinSamples: 5},
		},
		"openai": {
			got: OpenAIConfig(),
			want: Config{Name: "openai-api", HalfOpenProbes: 3, ResetInterval: 30 * time.Second,
				Cooldown: time.Minute, TripRatio: 0.6, MinSamples: 5},
		},
		"cms": {
			got: CMSConfig(),
			want: Config{Name: "cms-api", HalfOpenProbes: 3, ResetInterval: time.Minute,
				Cooldown: 2 * time.Minute, TripRatio: 0.7, MinSamples: 5},
		},
		"feeds": {
			got: FeedConfig(),
			want: Config{Name: "feed-fetch", HalfOpenProbes: 5, ResetInterval: time.Minute,
				Cooldown: 2 * time.Minute, TripRatio: 0.7, MinSamples: 10},
		},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("config = %+v, want %+v", tt.got, tt.want)
			}
		})
	}
}
