package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jcnm/meeshy-sub009/correlator"
	"github.com/jcnm/meeshy-sub009/registry"
	"github.com/jcnm/meeshy-sub009/translation"
)

// BatchDispatcher issues a batch job and awaits its matching result.
type BatchDispatcher interface {
	DispatchBatch(ctx context.Context, job translation.BatchJob, timeout time.Duration) (translation.BatchResult, error)
}

// Message is one inbound chat message to route.
type Message struct {
	JobID          string
	ConversationID string
	SenderID       string
	Text           string
	SourceLang     string
}

// Report summarizes the per-participant outcome of one fan-out.
type Report struct {
	// JobID is the identifier the batch job was dispatched under.
	JobID string
	// DetectedSourceLang is the engine's detected source language, empty
	// when no job was dispatched.
	DetectedSourceLang string
	// Delivered counts translated frames accepted by a recipient channel.
	Delivered int
	// Verbatim counts untranslated originals delivered to participants
	// that resolved to zero target languages.
	Verbatim int
	// Missed lists identities whose channel lookup failed, either at
	// snapshot time or between snapshot and delivery.
	Missed []string
	// Dropped counts frames refused by a recipient's full send buffer.
	Dropped int
	// MissingLangs lists requested languages the batch result omitted;
	// participants mapped to them were silently under-delivered.
	MissingLangs []string
}

// Broadcaster orchestrates one message: it resolves every participant's
// target languages, deduplicates them into a single batch job, and fans
// the per-language variants back out to each live connection.
type Broadcaster struct {
	registry     *registry.Registry
	dispatcher   BatchDispatcher
	logger       *zap.SugaredLogger
	batchTimeout time.Duration
}

// NewBroadcaster creates a broadcaster. A zero batchTimeout selects the
// correlator's batch default.
func NewBroadcaster(reg *registry.Registry, dispatcher BatchDispatcher, logger *zap.SugaredLogger, batchTimeout time.Duration) *Broadcaster {
	return &Broadcaster{
		registry:     reg,
		dispatcher:   dispatcher,
		logger:       logger,
		batchTimeout: batchTimeout,
	}
}

// RouteMessage routes one message to the given participants (the sender
// is excluded if listed). Each required language is translated exactly
// once regardless of how many participants need it. On dispatch failure
// no participant receives a variant and the error is returned so the
// caller can acknowledge the sender accordingly.
func (b *Broadcaster) RouteMessage(ctx context.Context, msg Message, participantIDs []string) (Report, error) {
	report := Report{JobID: msg.JobID}
	if report.JobID == "" {
		report.JobID = correlator.NewJobID()
	}

	// Per-call snapshot: a participant disconnecting after this point
	// misses delivery cleanly.
	ids := dedupeIdentities(participantIDs, msg.SenderID)
	snapshot := b.registry.Snapshot(ids)
	report.Missed = missingIdentities(ids, snapshot)

	targetsByID := make(map[string][]string, len(snapshot))
	var union []string
	seen := make(map[string]struct{})
	for _, p := range snapshot {
		targets := translation.ResolveTargets(p.Preference, msg.SourceLang)
		targetsByID[p.Identity] = targets
		for _, lang := range targets {
			if _, ok := seen[lang]; ok {
				continue
			}
			seen[lang] = struct{}{}
			union = append(union, lang)
		}
	}

	if len(union) == 0 {
		// Nothing to translate; every participant sees the original.
		for _, p := range snapshot {
			b.deliverVerbatim(p.Identity, msg, report.JobID, &report)
		}
		return report, nil
	}

	job := translation.BatchJob{
		JobID:          report.JobID,
		Text:           msg.Text,
		TargetLangs:    union,
		ConversationID: msg.ConversationID,
		SourceLang:     msg.SourceLang,
	}
	result, err := b.dispatcher.DispatchBatch(ctx, job, b.batchTimeout)
	if err != nil {
		return report, fmt.Errorf("batch job %s: %w", report.JobID, err)
	}
	report.DetectedSourceLang = result.DetectedSourceLang

	variants := result.ByTargetLang()
	missing := make(map[string]struct{})
	now := time.Now().UTC()

	for _, p := range snapshot {
		targets := targetsByID[p.Identity]
		if len(targets) == 0 {
			b.deliverVerbatim(p.Identity, msg, report.JobID, &report)
			continue
		}
		for _, lang := range targets {
			variant, ok := variants[lang]
			if !ok {
				// Partial batch result: under-deliver silently.
				if _, counted := missing[lang]; !counted {
					missing[lang] = struct{}{}
					report.MissingLangs = append(report.MissingLangs, lang)
				}
				continue
			}
			frame := NewMessageFrame{
				Type:               FrameNewMessage,
				JobID:              report.JobID,
				Text:               variant.TranslatedText,
				OriginalText:       msg.Text,
				ConversationID:     msg.ConversationID,
				SenderID:           msg.SenderID,
				TargetLang:         lang,
				DetectedSourceLang: result.DetectedSourceLang,
				Timestamp:          now,
			}
			if b.deliver(p.Identity, frame, &report) {
				report.Delivered++
			}
		}
	}

	if len(report.MissingLangs) > 0 {
		b.logger.Warnw("batch result omitted requested languages",
			"jobId", report.JobID, "missing", report.MissingLangs)
	}
	return report, nil
}

func (b *Broadcaster) deliverVerbatim(identity string, msg Message, jobID string, report *Report) {
	frame := NewMessageFrame{
		Type:               FrameNewMessage,
		JobID:              jobID,
		Text:               msg.Text,
		OriginalText:       msg.Text,
		ConversationID:     msg.ConversationID,
		SenderID:           msg.SenderID,
		TargetLang:         msg.SourceLang,
		DetectedSourceLang: msg.SourceLang,
		Timestamp:          time.Now().UTC(),
	}
	if b.deliver(identity, frame, report) {
		report.Verbatim++
	}
}

// deliver looks the identity up again at delivery time, so an unregister
// racing the fan-out is an ordinary miss. It reports whether the frame
// was accepted by the recipient's channel.
func (b *Broadcaster) deliver(identity string, frame NewMessageFrame, report *Report) bool {
	p, ok := b.registry.Get(identity)
	if !ok {
		report.Missed = append(report.Missed, identity)
		return false
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		b.logger.Errorw("failed to encode new_message frame", "error", err, "jobId", frame.JobID)
		return false
	}
	if !p.Channel.Deliver(payload) {
		report.Dropped++
		b.logger.Warnw("recipient channel full, frame dropped",
			"identity", identity, "jobId", frame.JobID)
		return false
	}
	return true
}

func dedupeIdentities(ids []string, sender string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" || id == sender {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func missingIdentities(ids []string, snapshot []registry.Participant) []string {
	present := make(map[string]struct{}, len(snapshot))
	for _, p := range snapshot {
		present[p.Identity] = struct{}{}
	}
	var missed []string
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missed = append(missed, id)
		}
	}
	return missed
}
