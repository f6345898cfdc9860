package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
)

func displayResult(w io.Writer, r *risk.Result) {
	bold := color.New(color.Bold)
	levelColor := getLevelColor(r.RiskLevel)

	fmt.Fprintln(w)
	bold.Fprint(w, "Risk score: ")
	levelColor.Fprintf(w, "%d (%s)\n", r.RiskScore, r.RiskLevel)
	fmt.Fprintf(w, "%s %s, %s, %d chars in %s\n",
		color.HiBlackString("Mode:"),
		r.Metadata.Mode,
		r.Metadata.ModelUsed,
		r.Metadata.ContentLength,
		r.Metadata.ProcessingTime.Round(time.Millisecond),
	)

	if r.Message != "" {
		fmt.Fprintf(w, "\n%s\n", color.YellowString(r.Message))
	}

	if r.Context.Summary != "" {
		bold.Fprintln(w, "\nContext")
		fmt.Fprintf(w, "   %s (%s, %s)\n", r.Context.Summary, r.Context.ContentType, r.Context.Tone)
	}

	if r.ContentOrigin != nil {
		fmt.Fprintf(w, "   Origin: %s (%d%% confidence)\n", r.ContentOrigin.Origin, r.ContentOrigin.Confidence)
	}

	if len(r.Highlights) > 0 {
		bold.Fprintln(w, "\nHighlights")
		for _, h := range r.Highlights {
			getLevelColor(h.Severity).Fprintf(w, "   %-28s %3d  %s\n", h.Category, h.RiskScore, h.Severity)
			if h.Explanation != "" {
				fmt.Fprintf(w, "      %s\n", color.HiBlackString(h.Explanation))
			}
		}
	}

	if len(r.RiskySpans) > 0 {
		bold.Fprintln(w, "\nFlagged spans")
		for _, s := range r.RiskySpans {
			fmt.Fprintf(w, "   [%d:%d] %s %s\n",
				s.StartIndex, s.EndIndex,
				getLevelColor(s.RiskLevel).Sprintf("%q", s.Text),
				color.HiBlackString(s.PolicyCategory),
			)
		}
	}

	if len(r.RiskyPhrasesByCategory) > 0 {
		bold.Fprintln(w, "\nRisky phrases")
		for _, category := range slices.Sorted(maps.Keys(r.RiskyPhrasesByCategory)) {
			fmt.Fprintf(w, "   %s: %s\n", category, strings.Join(r.RiskyPhrasesByCategory[category], ", "))
		}
	}

	if len(r.Suggestions) > 0 {
		bold.Fprintln(w, "\nSuggestions")
		for i, s := range r.Suggestions {
			fmt.Fprintf(w, "   %d. %s %s\n", i+1, s.Title, getLevelColor(s.Priority).Sprintf("[%s]", s.Priority))
			if s.Text != "" && s.Text != s.Title {
				fmt.Fprintf(w, "      %s\n", s.Text)
			}
		}
	}

	notes := append(slices.Clone(r.Metadata.Degradations), r.Metadata.Caveats...)
	if len(notes) > 0 {
		bold.Fprintln(w, "\nNotes")
		for _, n := range notes {
			fmt.Fprintf(w, "   %s\n", color.HiBlackString(n))
		}
	}

	fmt.Fprintln(w)
}

func getLevelColor(level risk.Level) *color.Color {
	switch level {
	case risk.LevelHigh:
		return color.New(color.FgRed, color.Bold)
	case risk.LevelMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
