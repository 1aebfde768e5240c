// Package store persists runs on disk: one directory per run holding
// the run metadata, the sampled observables, and optional particle
// checkpoints a later run can restart from.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/particle"
	"github.com/san-kum/mdsim/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Dimension   int       `json:"dimension"`
	Particles   int       `json:"particles"`
	Species     int       `json:"species"`
	Potential   string    `json:"potential"`
	Integrator  string    `json:"integrator"`
	Dt          float64   `json:"dt"`
	Steps       int       `json:"steps"`
	Seed        int64     `json:"seed"`
	EnergyDrift float64   `json:"energy_drift"`
	Elapsed     float64   `json:"elapsed_seconds"`
}

// SaveRun writes metadata and the sampled observables, returning the
// generated run id.
func (s *Store) SaveRun(cfg *config.Config, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", cfg.Potential.Type, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Timestamp:   time.Now(),
		Dimension:   cfg.Dimension,
		Particles:   cfg.Particles,
		Species:     cfg.Species,
		Potential:   cfg.Potential.Type,
		Integrator:  cfg.Integrator.Type,
		Dt:          cfg.Integrator.Dt,
		Steps:       result.StepsTaken,
		Seed:        cfg.Seed,
		EnergyDrift: result.EnergyDrift,
		Elapsed:     result.Elapsed.Seconds(),
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeSamples(filepath.Join(runDir, "samples.csv"), result.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

func writeSamples(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"step", "time", "en_pot", "en_kin", "en_tot", "temperature", "pressure"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			strconv.FormatUint(smp.Step, 10),
			strconv.FormatFloat(smp.Time, 'g', -1, 64),
			strconv.FormatFloat(smp.EnPot, 'g', -1, 64),
			strconv.FormatFloat(smp.EnKin, 'g', -1, 64),
			strconv.FormatFloat(smp.EnTot, 'g', -1, 64),
			strconv.FormatFloat(smp.Temperature, 'g', -1, 64),
			strconv.FormatFloat(smp.Pressure, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// List returns the metadata of every run under the base directory.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSamples reads back the observables written by SaveRun.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != 7 {
			continue
		}
		step, err := strconv.ParseUint(rec[0], 10, 64)
		if err != nil {
			continue
		}
		vals := make([]float64, 6)
		ok := true
		for i := range vals {
			vals[i], err = strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		samples = append(samples, sim.Sample{
			Step: step, Time: vals[0],
			EnPot: vals[1], EnKin: vals[2], EnTot: vals[3],
			Temperature: vals[4], Pressure: vals[5],
		})
	}
	return samples, nil
}

// SaveCheckpoint writes the full particle state keyed by particle id,
// so a restart is insensitive to any storage reordering the run did.
func SaveCheckpoint[V numeric.Vector[V]](s *Store, runID string, sys *particle.System[V]) error {
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(runDir, "checkpoint.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	dim := sys.Dim()
	header := []string{"id", "species", "mass"}
	axes := []string{"x", "y", "z"}[:dim]
	for _, a := range axes {
		header = append(header, "r"+a)
	}
	for _, a := range axes {
		header = append(header, "v"+a)
	}
	for _, a := range axes {
		header = append(header, "img"+a)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	pos := sys.Position()
	vel := sys.Velocity()
	img := sys.Image()
	species := sys.Species()
	mass := sys.Mass()
	id := sys.ID()

	for i := 0; i < sys.Len(); i++ {
		row := []string{
			strconv.FormatUint(uint64(id[i]), 10),
			strconv.FormatUint(uint64(species[i]), 10),
			strconv.FormatFloat(mass[i], 'g', -1, 64),
		}
		for _, v := range []V{pos[i], vel[i], img[i]} {
			for k := 0; k < dim; k++ {
				row = append(row, strconv.FormatFloat(v.At(k), 'g', -1, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// LoadCheckpoint restores particle state saved by [SaveCheckpoint] into
// slot k = id, re-establishing the identity ordering.
func LoadCheckpoint[V numeric.Vector[V]](s *Store, runID string, sys *particle.System[V]) error {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "checkpoint.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return err
	}
	if len(records)-1 != sys.Len() {
		return fmt.Errorf("checkpoint has %d particles, system has %d: %w",
			len(records)-1, sys.Len(), md.ErrInvalidArgument)
	}

	dim := sys.Dim()
	n := sys.Len()
	pos := make([]V, n)
	vel := make([]V, n)
	img := make([]V, n)
	species := make([]uint32, n)
	mass := make([]float64, n)

	for _, rec := range records[1:] {
		if len(rec) != 3+3*dim {
			return fmt.Errorf("checkpoint row has %d fields, want %d: %w",
				len(rec), 3+3*dim, md.ErrInvalidArgument)
		}
		id, err := strconv.ParseUint(rec[0], 10, 32)
		if err != nil || id >= uint64(n) {
			return fmt.Errorf("bad checkpoint particle id %q: %w", rec[0], md.ErrInvalidArgument)
		}
		sp, err := strconv.ParseUint(rec[1], 10, 32)
		if err != nil {
			return fmt.Errorf("bad checkpoint species %q: %w", rec[1], md.ErrInvalidArgument)
		}
		m, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return fmt.Errorf("bad checkpoint mass %q: %w", rec[2], md.ErrInvalidArgument)
		}
		species[id] = uint32(sp)
		mass[id] = m
		for _, set := range []struct {
			dst []V
			off int
		}{
			{pos, 3},
			{vel, 3 + dim},
			{img, 3 + 2*dim},
		} {
			var v V
			for k := 0; k < dim; k++ {
				x, err := strconv.ParseFloat(rec[set.off+k], 64)
				if err != nil {
					return fmt.Errorf("bad checkpoint coordinate %q: %w", rec[set.off+k], md.ErrInvalidArgument)
				}
				v = v.With(k, x)
			}
			set.dst[id] = v
		}
	}

	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = uint32(i)
	}
	for name, apply := range map[string]func() error{
		particle.NamePosition:  func() error { return particle.SetData[V](sys, particle.NamePosition, pos) },
		particle.NameVelocity:  func() error { return particle.SetData[V](sys, particle.NameVelocity, vel) },
		particle.NameImage:     func() error { return particle.SetData[V](sys, particle.NameImage, img) },
		particle.NameSpecies:   func() error { return particle.SetData[uint32](sys, particle.NameSpecies, species) },
		particle.NameMass:      func() error { return particle.SetData[float64](sys, particle.NameMass, mass) },
		particle.NameID:        func() error { return particle.SetData[uint32](sys, particle.NameID, ids) },
		particle.NameReverseID: func() error { return particle.SetData[uint32](sys, particle.NameReverseID, ids) },
	} {
		if err := apply(); err != nil {
			return fmt.Errorf("restore %s: %w", name, err)
		}
	}
	sys.MarkForceDirty()
	sys.MarkAuxDirty()
	return nil
}
