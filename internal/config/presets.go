package config

var Presets = map[string]map[string]*Config{
	"lennard_jones": {
		"liquid": {
			Dimension: 3, Particles: 1000, Species: 1, Density: 0.8442,
			Potential: PotentialConfig{
				Type:    "lennard_jones",
				Epsilon: [][]float64{{1.0}}, Sigma: [][]float64{{1.0}},
				Cutoff: [][]float64{{2.5}},
			},
			Integrator:     IntegratorConfig{Type: "verlet", Dt: 0.001},
			Neighbor:       NeighborConfig{Skin: 0.5},
			Steps:          20000, SampleInterval: 100, SortInterval: 100,
			Temperature: 0.722, Seed: 42,
		},
		"gas": {
			Dimension: 3, Particles: 500, Species: 1, Density: 0.05,
			Potential: PotentialConfig{
				Type:    "lennard_jones",
				Epsilon: [][]float64{{1.0}}, Sigma: [][]float64{{1.0}},
				Cutoff: [][]float64{{2.5}},
			},
			Integrator:     IntegratorConfig{Type: "verlet", Dt: 0.002},
			Neighbor:       NeighborConfig{Skin: 1.0},
			Steps:          10000, SampleInterval: 100, SortInterval: 0,
			Temperature: 2.0, Seed: 42,
		},
		"film": {
			Dimension: 2, Particles: 400, Species: 1, Density: 0.75,
			Potential: PotentialConfig{
				Type:    "lennard_jones",
				Epsilon: [][]float64{{1.0}}, Sigma: [][]float64{{1.0}},
				Cutoff: [][]float64{{2.5}}, Smoothing: 0.005,
			},
			Integrator:     IntegratorConfig{Type: "verlet", Dt: 0.001},
			Neighbor:       NeighborConfig{Skin: 0.5},
			Steps:          20000, SampleInterval: 100, SortInterval: 200,
			Temperature: 0.9, Seed: 42,
		},
	},
	"binary": {
		"kob_andersen": {
			Dimension: 3, Particles: 1000, Species: 2, Density: 1.2,
			Potential: PotentialConfig{
				Type: "lennard_jones",
				Epsilon: [][]float64{
					{1.0, 1.5},
					{1.5, 0.5},
				},
				Sigma: [][]float64{
					{1.0, 0.8},
					{0.8, 0.88},
				},
				Cutoff: [][]float64{
					{2.5, 2.5},
					{2.5, 2.5},
				},
			},
			Integrator: IntegratorConfig{
				Type: "nose_hoover", Dt: 0.002, Temperature: 0.6, Resonance: 5.0,
			},
			Neighbor:       NeighborConfig{Skin: 0.5},
			Steps:          50000, SampleInterval: 200, SortInterval: 100,
			Temperature: 0.6, Seed: 42,
		},
	},
	"morse": {
		"crystal": {
			Dimension: 3, Particles: 864, Species: 1, Density: 1.0,
			Potential: PotentialConfig{
				Type:    "morse",
				Epsilon: [][]float64{{1.0}}, Sigma: [][]float64{{0.5}},
				RMin: [][]float64{{1.12}}, Cutoff: [][]float64{{4.0}},
			},
			Integrator: IntegratorConfig{
				Type: "andersen", Dt: 0.001, Temperature: 0.1, CollisionRate: 10.0,
			},
			Neighbor:       NeighborConfig{Skin: 0.6},
			Steps:          30000, SampleInterval: 100, SortInterval: 100,
			Temperature: 0.1, Seed: 42,
		},
	},
	"soft_sphere": {
		"melt": {
			Dimension: 3, Particles: 1000, Species: 1, Density: 0.9,
			Potential: PotentialConfig{
				Type:    "power_law",
				Epsilon: [][]float64{{1.0}}, Sigma: [][]float64{{1.0}},
				Index: [][]float64{{12}}, Cutoff: [][]float64{{2.0}},
			},
			Integrator: IntegratorConfig{
				Type: "nose_hoover", Dt: 0.001, Temperature: 1.0, Resonance: 5.0,
			},
			Neighbor:       NeighborConfig{Skin: 0.5},
			Steps:          20000, SampleInterval: 100, SortInterval: 100,
			Temperature: 1.0, Seed: 42,
		},
	},
}

func GetPreset(family, preset string) *Config {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	cfg, ok := familyPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(family string) []string {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(familyPresets))
	for name := range familyPresets {
		names = append(names, name)
	}
	return names
}
