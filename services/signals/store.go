package signals

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"signalscan_backend/models"
)

// LiveSignalsDir holds one JSON artifact per scan day
const LiveSignalsDir = "results/live_signals"

// Store persists scan results as daily JSON artifacts
type Store struct {
	dir string
}

// NewStore creates a signal store rooted at dir (the default when empty)
func NewStore(dir string) *Store {
	if dir == "" {
		dir = LiveSignalsDir
	}
	return &Store{dir: dir}
}

// ArtifactPath returns the file path for a result. The name is derived
// from the overall signal's date so reruns for the same day overwrite
// rather than accumulate; the current date is the fallback.
func (s *Store) ArtifactPath(result *models.ScanResult) string {
	date := time.Now().Format("2006-01-02")
	if result != nil && result.Overall != nil && result.Overall.Date != "" {
		date = result.Overall.Date
	}
	return filepath.Join(s.dir, fmt.Sprintf("daily_signal_%s.json", date))
}

// Save writes the day's artifact. This is the primary product of a scan,
// so a write failure is an error rather than a warning.
func (s *Store) Save(result *models.ScanResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("nothing to save")
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create signals directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode scan result: %w", err)
	}

	path := s.ArtifactPath(result)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write signal artifact: %w", err)
	}
	return path, nil
}

// Load reads one artifact back by date (YYYY-MM-DD)
func (s *Store) Load(date string) (*models.ScanResult, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("daily_signal_%s.json", date))
	return s.loadPath(path)
}

// LoadLatest reads the most recent artifact by filename order
func (s *Store) LoadLatest() (*models.ScanResult, error) {
	names, err := s.artifactNames()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no signal artifacts found")
	}
	return s.loadPath(filepath.Join(s.dir, names[len(names)-1]))
}

// artifactNames lists the daily artifacts in date order
func (s *Store) artifactNames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read signals directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "daily_signal_") && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ChangeEntry summarises one archived scan day's overall outcome
type ChangeEntry struct {
	Date        string
	Symbol      string
	SetupType   string
	SignalFound bool
}

// RecentChanges returns the overall outcome of the last n artifacts, oldest
// first, so a report can show how the published signal moved day to day.
// Unreadable artifacts are skipped.
func (s *Store) RecentChanges(n int) []ChangeEntry {
	names, err := s.artifactNames()
	if err != nil {
		return nil
	}
	if n > 0 && len(names) > n {
		names = names[len(names)-n:]
	}

	var changes []ChangeEntry
	for _, name := range names {
		result, err := s.loadPath(filepath.Join(s.dir, name))
		if err != nil || result.Overall == nil {
			continue
		}
		o := result.Overall
		changes = append(changes, ChangeEntry{
			Date:        o.Date,
			Symbol:      o.Symbol,
			SetupType:   o.SetupType,
			SignalFound: o.SignalFound,
		})
	}
	return changes
}

func (s *Store) loadPath(path string) (*models.ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signal artifact: %w", err)
	}

	var result models.ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("corrupt signal artifact %s: %w", path, err)
	}
	return &result, nil
}

// RenderText formats a scan result as a human-readable report block,
// optionally followed by the strongest long-run symbols and a summary of
// how the overall signal moved over recent scan days.
func RenderText(result *models.ScanResult, topPicks []models.HistoricalPerformance, changes []ChangeEntry) string {
	var b strings.Builder

	b.WriteString("=== Daily Signal Report ===\n")
	if result == nil {
		b.WriteString("No scan result available.\n")
		return b.String()
	}

	b.WriteString("Overall:\n")
	writeSignalText(&b, result.Overall)

	segments := make([]string, 0, len(result.Segments))
	for name := range result.Segments {
		segments = append(segments, name)
	}
	sort.Strings(segments)

	for _, name := range segments {
		fmt.Fprintf(&b, "Segment %s:\n", name)
		writeSignalText(&b, result.Segments[name])
	}

	if len(topPicks) > 0 {
		b.WriteString("Top long-run performers:\n")
		for i, p := range topPicks {
			fmt.Fprintf(&b, "  %d. %s  strength=%.1f  win_rate=%.1f%%  trades=%d\n",
				i+1, p.Symbol, p.StrengthScore, p.WinRate, p.TotalTrades)
		}
	}

	if len(changes) > 0 {
		b.WriteString("Recent signal history:\n")
		for _, ch := range changes {
			if ch.SignalFound {
				fmt.Fprintf(&b, "  %s  %s (%s)\n", ch.Date, ch.Symbol, ch.SetupType)
			} else {
				fmt.Fprintf(&b, "  %s  no signal\n", ch.Date)
			}
		}
	}

	return b.String()
}

func writeSignalText(b *strings.Builder, sig *models.Signal) {
	if sig == nil {
		b.WriteString("  (none)\n")
		return
	}
	if !sig.SignalFound {
		if sig.Stale {
			fmt.Fprintf(b, "  %s  %s: STALE (%s)\n", sig.Date, sig.Symbol, sig.Message)
			return
		}
		fmt.Fprintf(b, "  %s: no signal (%s)\n", sig.Date, sig.Message)
		return
	}

	rr := "n/a"
	if sig.RiskRewardRatio != nil {
		rr = fmt.Sprintf("%.2f", *sig.RiskRewardRatio)
	}
	fmt.Fprintf(b, "  %s  %s  %s/%s  score=%.2f\n", sig.Date, sig.Symbol, sig.SetupType, sig.Tier, sig.Score)
	fmt.Fprintf(b, "    entry=%.2f stop=%.2f target=%.2f rr=%s atr=%.2f\n",
		sig.EntryPrice, sig.StopLossPrice, sig.TargetPrice, rr, sig.ATR)
	if sig.HistStrengthScore != nil {
		fmt.Fprintf(b, "    hist strength=%.1f\n", *sig.HistStrengthScore)
	}
}
