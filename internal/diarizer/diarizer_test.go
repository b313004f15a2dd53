package diarizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

type fakeExecutor struct {
	out  string
	err  error
	name string
	args []string
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	f.name, f.args = name, args
	return f.out, f.err
}

func (f *fakeExecutor) ExecuteInDir(ctx context.Context, dir, name string, args ...string) (string, error) {
	return f.Execute(ctx, name, args...)
}

func turn(start, end float64, id string) models.DiarizationTurn {
	return models.DiarizationTurn{Start: start, End: end, SpeakerID: id}
}

func TestNewWithoutCommandIsNoop(t *testing.T) {
	d := New(config.DiarizationConfig{}, &fakeExecutor{}, logger.Discard())
	if _, ok := d.(Noop); !ok {
		t.Fatalf("New() = %T, want Noop", d)
	}
	turns, err := d.Diarize(context.Background(), "a.wav")
	if err != nil || len(turns) != 0 {
		t.Fatalf("Diarize() = %v, %v", turns, err)
	}
}

func TestDiarizeArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"audio appended", []string{"diarize.py", "--token", "{hf_token}"}, "diarize.py --token secret /tmp/a.wav"},
		{"audio placeholder", []string{"--in={audio}", "--json"}, "--in=/tmp/a.wav --json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{out: `[{"start":0,"end":2,"speaker":"A"}]`}
			cfg := config.DiarizationConfig{Command: "python3", Args: tt.args, HFToken: "secret"}
			if _, err := New(cfg, exec, logger.Discard()).Diarize(context.Background(), "/tmp/a.wav"); err != nil {
				t.Fatalf("Diarize() error = %v", err)
			}
			if got := strings.Join(exec.args, " "); got != tt.want {
				t.Errorf("args = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiarizeSmoothsOutput(t *testing.T) {
	exec := &fakeExecutor{out: "loading model...\n" +
		"SPEAKER audio 1 0.000 4.000 <NA> <NA> SPEAKER_00 <NA> <NA>\n" +
		"SPEAKER audio 1 4.200 3.000 <NA> <NA> SPEAKER_00 <NA> <NA>\n" +
		"SPEAKER audio 1 7.500 5.000 <NA> <NA> SPEAKER_01 <NA> <NA>\n"}
	cfg := config.DiarizationConfig{Command: "diarize", MergeGap: 0.35, MinSegmentDuration: 0.6}

	got, err := New(cfg, exec, logger.Discard()).Diarize(context.Background(), "a.wav")
	if err != nil {
		t.Fatalf("Diarize() error = %v", err)
	}
	want := []models.DiarizationTurn{turn(0, 7.2, "SPEAKER_00"), turn(7.5, 12.5, "SPEAKER_01")}
	if len(got) != len(want) {
		t.Fatalf("turns = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("turn %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDiarizeFailures(t *testing.T) {
	tests := []struct {
		name string
		exec *fakeExecutor
	}{
		{"command fails", &fakeExecutor{err: errors.New("command 'diarize --token secret' failed")}},
		{"bad json", &fakeExecutor{out: `[{"start":`}},
		{"no records", &fakeExecutor{out: "nothing useful"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DiarizationConfig{Command: "diarize", Args: []string{"--token", "{hf_token}"}, HFToken: "secret"}
			_, err := New(cfg, tt.exec, logger.Discard()).Diarize(context.Background(), "a.wav")
			if !errors.Is(err, models.ErrDiarization) {
				t.Fatalf("error = %v, want ErrDiarization", err)
			}
			if strings.Contains(err.Error(), "secret") {
				t.Errorf("error leaks token: %v", err)
			}
		})
	}
}

func TestParseTurns(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want int
	}{
		{"empty", "  ", 0},
		{"json array", `[{"start":0,"end":1,"speaker":"A"},{"start":1,"end":2,"speaker":"B"}]`, 2},
		{"json object", `{"turns":[{"start":0,"end":1,"speaker":"A"}]}`, 1},
		{"rttm", "SPEAKER f 1 0.5 1.25 <NA> <NA> spk1 <NA> <NA>", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTurns(tt.out)
			if err != nil {
				t.Fatalf("ParseTurns() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}

	got, _ := ParseTurns("SPEAKER f 1 0.5 1.25 <NA> <NA> spk1 <NA> <NA>")
	if got[0] != turn(0.5, 1.75, "spk1") {
		t.Errorf("rttm turn = %+v", got[0])
	}
}

func TestSmooth(t *testing.T) {
	tests := []struct {
		name  string
		turns []models.DiarizationTurn
		want  []models.DiarizationTurn
	}{
		{
			name:  "rounds to milliseconds",
			turns: []models.DiarizationTurn{turn(0.12345, 2.98765, "A")},
			want:  []models.DiarizationTurn{turn(0.123, 2.988, "A")},
		},
		{
			name:  "drops empty turns and sorts",
			turns: []models.DiarizationTurn{turn(5, 8, "B"), turn(3, 3, "A"), turn(0, 4, "A")},
			want:  []models.DiarizationTurn{turn(0, 4, "A"), turn(5, 8, "B")},
		},
		{
			name:  "merges small same-speaker gap",
			turns: []models.DiarizationTurn{turn(0, 2, "A"), turn(2.3, 4, "A"), turn(5, 7, "A")},
			want:  []models.DiarizationTurn{turn(0, 4, "A"), turn(5, 7, "A")},
		},
		{
			name:  "short turn folds into previous",
			turns: []models.DiarizationTurn{turn(0, 3, "A"), turn(3, 3.4, "B"), turn(3.4, 6, "C")},
			want:  []models.DiarizationTurn{turn(0, 3.4, "A"), turn(3.4, 6, "C")},
		},
		{
			name:  "short opening turn folds into next",
			turns: []models.DiarizationTurn{turn(0, 0.3, "B"), turn(0.3, 4, "A")},
			want:  []models.DiarizationTurn{turn(0, 4, "A")},
		},
		{
			name:  "absorbed blip rejoins speaker",
			turns: []models.DiarizationTurn{turn(0, 3, "A"), turn(3, 3.2, "B"), turn(3.3, 6, "A")},
			want:  []models.DiarizationTurn{turn(0, 6, "A")},
		},
		{
			name:  "lone short turn kept",
			turns: []models.DiarizationTurn{turn(1, 1.2, "A")},
			want:  []models.DiarizationTurn{turn(1, 1.2, "A")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Smooth(tt.turns, 0.6, 0.35)
			if len(got) != len(tt.want) {
				t.Fatalf("Smooth() = %+v, want %+v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("turn %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
