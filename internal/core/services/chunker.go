package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/truthscope/internal/core/domain"
)

const chunkSeparator = "\n\n"

var (
	paragraphBreak = regexp.MustCompile(`\n[ \t\r]*\n\s*`)
	sentenceUnit   = regexp.MustCompile(`(?s)[^.!?]+[.!?]+["'”’)\]]?|.+$`)
)

// Chunk splits text into at most maxChunks pieces of at most targetLength
// runes, keeping paragraphs whole where they fit and sentences whole otherwise.
// Non-positive arguments fall back to domain.DefaultChunkSettings.
func Chunk(text string, targetLength, maxChunks int) []string {
	defaults := domain.DefaultChunkSettings()
	if targetLength <= 0 {
		targetLength = defaults.TargetLength
	}
	if maxChunks <= 0 {
		maxChunks = defaults.MaxChunks
	}

	var (
		chunks []string
		buf    strings.Builder
		bufLen int
	)
	flush := func() {
		if bufLen == 0 {
			return
		}
		chunks = append(chunks, buf.String())
		buf.Reset()
		bufLen = 0
	}

pack:
	for _, unit := range chunkUnits(text, targetLength) {
		if len(chunks) >= maxChunks {
			break pack
		}
		unitLen := utf8.RuneCountInString(unit)
		switch {
		case bufLen == 0:
			buf.WriteString(unit)
			bufLen = unitLen
		case bufLen+len(chunkSeparator)+unitLen > targetLength:
			flush()
			if len(chunks) >= maxChunks {
				break pack
			}
			buf.WriteString(unit)
			bufLen = unitLen
		default:
			buf.WriteString(chunkSeparator)
			buf.WriteString(unit)
			bufLen += len(chunkSeparator) + unitLen
		}
	}
	if len(chunks) < maxChunks {
		flush()
	}

	if len(chunks) == 0 && strings.TrimSpace(text) != "" {
		return sliceRunes(text, targetLength, maxChunks)
	}
	return chunks
}

// chunkUnits returns paragraphs, with oversized ones broken into sentences.
func chunkUnits(text string, targetLength int) []string {
	var units []string
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= targetLength {
			units = append(units, para)
			continue
		}
		for _, sentence := range sentenceUnit.FindAllString(para, -1) {
			if sentence = strings.TrimSpace(sentence); sentence != "" {
				units = append(units, sentence)
			}
		}
	}
	return units
}

func sliceRunes(text string, size, limit int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes) && len(out) < limit; start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
