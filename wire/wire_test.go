package wire

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jcnm/meeshy-sub009/translation"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Run("single job", func(t *testing.T) {
		job := translation.Job{
			JobID:          "job-1",
			Text:           "Hello",
			TargetLang:     "es",
			ConversationID: "conv-1",
			SourceLang:     "en",
			ModelHint:      "premium",
			SkipCache:      true,
		}
		frame, err := Encode(KindSingleJob, job)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		env, err := Decode(frame)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if env.Kind != KindSingleJob {
			t.Errorf("kind = %v, want %v", env.Kind, KindSingleJob)
		}
		var got translation.Job
		if err := env.Unmarshal(&got); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if !reflect.DeepEqual(got, job) {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, job)
		}
	})

	t.Run("batch job", func(t *testing.T) {
		job := translation.BatchJob{
			JobID:          "batch-1",
			Text:           "Hello",
			TargetLangs:    []string{"es", "fr"},
			ConversationID: "conv-1",
			SourceLang:     "",
		}
		frame, err := Encode(KindBatchJob, job)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		env, err := Decode(frame)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		var got translation.BatchJob
		if err := env.Unmarshal(&got); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if !reflect.DeepEqual(got, job) {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, job)
		}
	})

	t.Run("single result", func(t *testing.T) {
		result := translation.Result{
			JobID:              "job-1",
			TranslatedText:     "Hola",
			DetectedSourceLang: "en",
			Meta: translation.ResultMeta{
				Confidence: 0.92,
				FromCache:  true,
				ModelUsed:  "basic",
			},
		}
		frame, err := Encode(KindSingleResult, result)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		env, err := Decode(frame)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		var got translation.Result
		if err := env.Unmarshal(&got); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if !reflect.DeepEqual(got, result) {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, result)
		}
	})

	t.Run("batch result", func(t *testing.T) {
		result := translation.BatchResult{
			JobID:              "batch-1",
			DetectedSourceLang: "en",
			Translations: []translation.Translation{
				{TargetLang: "es", TranslatedText: "Hola", Confidence: 0.9, FromCache: false},
				{TargetLang: "fr", TranslatedText: "Bonjour", Confidence: 0.85, FromCache: true},
			},
		}
		frame, err := Encode(KindBatchResult, result)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		env, err := Decode(frame)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		var got translation.BatchResult
		if err := env.Unmarshal(&got); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if !reflect.DeepEqual(got, result) {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, result)
		}
	})
}

func TestDecodeRejectsBadFrames(t *testing.T) {
	valid, err := Encode(KindSingleJob, translation.Job{JobID: "j", Text: "x", TargetLang: "es"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	tests := []struct {
		name    string
		frame   []byte
		wantErr error
	}{
		{"empty", nil, ErrTruncatedFrame},
		{"short header", valid[:4], ErrTruncatedFrame},
		{"bad magic", append([]byte{'X', 'X'}, valid[2:]...), ErrBadMagic},
		{"bad version", mutate(valid, 2, 99), ErrBadVersion},
		{"unknown kind", mutate(valid, 3, 200), ErrUnknownKind},
		{"truncated payload", valid[:len(valid)-3], ErrTruncatedFrame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.frame)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeRejectsUnknownKind(t *testing.T) {
	if _, err := Encode(Kind(0), struct{}{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func mutate(frame []byte, index int, value byte) []byte {
	out := make([]byte, len(frame))
	copy(out, frame)
	out[index] = value
	return out
}
