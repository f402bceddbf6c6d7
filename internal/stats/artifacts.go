// Package stats writes run artifacts to disk and keeps an index of the runs
// exported so far.
package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"critters/internal/model"
)

const runIndexFile = "run_index.json"

// Champion is one of the fittest genomes at export time.
type Champion struct {
	Rank    int     `json:"rank"`
	Fitness float64 `json:"fitness"`
	Colour  string  `json:"colour"`
	// Weights is the genome's text dump.
	Weights string `json:"weights"`
}

type RunArtifacts struct {
	Run         model.RunRecord
	Generations []model.GenerationRecord
	Champions   []Champion
	// Completed is the number of generations the run finished, reported or
	// not. FinalFitness is the top-N average of the final population.
	Completed    int
	FinalFitness float64
}

type RunIndexEntry struct {
	RunID          string  `json:"run_id"`
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	Seed           int64   `json:"seed"`
	Threads        int     `json:"threads"`
	FinalFitness   float64 `json:"final_fitness"`
	CreatedAtUTC   string  `json:"created_at_utc"`
}

// IndexEntry summarizes artifacts for the run index.
func (a RunArtifacts) IndexEntry(createdAt time.Time) RunIndexEntry {
	return RunIndexEntry{
		RunID:          a.Run.ID,
		PopulationSize: a.Run.PopulationSize,
		Generations:    a.Completed,
		Seed:           a.Run.Seed,
		Threads:        a.Run.Threads,
		FinalFitness:   a.FinalFitness,
		CreatedAtUTC:   createdAt.UTC().Format(time.RFC3339Nano),
	}
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "run.json"), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "generations.json"), artifacts.Generations); err != nil {
		return "", err
	}
	if err := WriteFitnessSeries(runDir, artifacts.Generations); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "champions.json"), artifacts.Champions); err != nil {
		return "", err
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns the index newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	// Later appended entries win ties.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAtUTC > entries[j].CreatedAtUTC
	})
	return entries, nil
}

func WriteFitnessSeries(runDir string, records []model.GenerationRecord) error {
	path := filepath.Join(runDir, "fitness_series.csv")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "top_fitness", "population", "duration_ms"}); err != nil {
		return err
	}
	for _, rec := range records {
		if err := writer.Write([]string{
			strconv.Itoa(rec.Generation),
			strconv.FormatFloat(rec.TopFitness, 'f', -1, 64),
			strconv.Itoa(rec.Population),
			strconv.FormatInt(rec.Duration.Milliseconds(), 10),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// FitnessPoint is one row of a fitness series.
type FitnessPoint struct {
	Generation int
	TopFitness float64
}

func ReadFitnessSeries(baseDir, runID string) ([]FitnessPoint, bool, error) {
	path := filepath.Join(baseDir, runID, "fitness_series.csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []FitnessPoint{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, fmt.Errorf("fitness series header must have at least 2 columns")
	}

	series := make([]FitnessPoint, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		generation, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, false, err
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, FitnessPoint{Generation: generation, TopFitness: value})
	}
	return series, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
