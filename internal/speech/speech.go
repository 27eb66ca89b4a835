// Package speech serves synthesized audio for roast text, caching it per text and voice.
package speech

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/ckiertz4887/website-roast/internal/cache"
	"github.com/ckiertz4887/website-roast/internal/core"
	"github.com/ckiertz4887/website-roast/internal/keys"
)

// MaxTextLength is the longest accepted text, in Unicode code points.
const MaxTextLength = 5000

// Gateway fronts a core.Synthesizer with the audio cache
type Gateway struct {
	cache       *cache.Store[[]byte]
	synthesizer core.Synthesizer
	stylePrefix string
}

// New creates a speech gateway. stylePrefix, when set, is prepended to the text sent
// to the synthesizer (e.g. "[sarcastic]") but is not part of the cache key.
func New(store *cache.Store[[]byte], synthesizer core.Synthesizer, stylePrefix string) *Gateway {
	return &Gateway{
		cache:       store,
		synthesizer: synthesizer,
		stylePrefix: strings.TrimSpace(stylePrefix),
	}
}

// Synthesize returns MP3 audio for text and whether it came from the cache.
// Text over MaxTextLength is rejected, never truncated.
func (g *Gateway) Synthesize(ctx context.Context, text string) ([]byte, core.CacheStatus, error) {
	if text == "" {
		return nil, core.CacheMiss, core.NewValidationError(`Missing "text" in request body`)
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return nil, core.CacheMiss, core.NewValidationError("Text too long (max 5000 characters)")
	}

	log := core.Logger(ctx)
	key := keys.SpeechKey(text, g.synthesizer.VoiceID())
	audio, status, err := g.cache.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		log.Info("speech cache miss, generating audio", "chars", utf8.RuneCountInString(text))
		return g.synthesizer.Synthesize(ctx, g.withStyle(text))
	})
	if err != nil {
		log.Error("speech synthesis failed", "error", err)
		return nil, status, err
	}

	log.Info("speech served", "cache", string(status), "size", humanize.Bytes(uint64(len(audio))))
	return audio, status, nil
}

func (g *Gateway) withStyle(text string) string {
	if g.stylePrefix == "" {
		return text
	}
	return g.stylePrefix + " " + text
}
