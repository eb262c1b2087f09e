package target

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"satops-plan/internal/config"
	"satops-plan/internal/geo"
)

// Spawner synthesizes ballistic targets between configured launch and impact
// zones. It stands in for the external detection feed.
type Spawner struct {
	launchZones []config.Zone
	impactZones []config.Zone
	cfg         config.Spawner
	rand        *rand.Rand
	counter     int
}

// NewSpawner creates a spawner from the planning config. Zero or negative
// spawner values fall back to workable defaults.
func NewSpawner(cfg *config.PlanningConfig, seed int64) *Spawner {
	sc := cfg.Spawner
	if sc.CountPerCycle <= 0 {
		sc.CountPerCycle = 2
	}
	if sc.FlightTimeMinS <= 0 {
		sc.FlightTimeMinS = 900
	}
	if sc.FlightTimeMaxS < sc.FlightTimeMinS {
		sc.FlightTimeMaxS = sc.FlightTimeMinS
	}
	if sc.SampleIntervalS <= 0 {
		sc.SampleIntervalS = 10
	}
	if sc.ApexAltKM <= 0 {
		sc.ApexAltKM = 400
	}
	return &Spawner{
		launchZones: cfg.LaunchZones,
		impactZones: cfg.ImpactZones,
		cfg:         sc,
		rand:        rand.New(rand.NewSource(seed)),
	}
}

// Spawn returns a fresh batch of detected targets launched at now.
func (s *Spawner) Spawn(now time.Time) []*Target {
	targets := make([]*Target, 0, s.cfg.CountPerCycle)
	for i := 0; i < s.cfg.CountPerCycle; i++ {
		targets = append(targets, s.spawnOne(now))
	}
	return targets
}

func (s *Spawner) spawnOne(now time.Time) *Target {
	s.counter++
	launch := s.randomZonePosition(s.launchZones)
	impact := s.randomZonePosition(s.impactZones)

	flightTime := s.cfg.FlightTimeMinS +
		s.rand.Float64()*(s.cfg.FlightTimeMaxS-s.cfg.FlightTimeMinS)

	t := &Target{
		ID:             fmt.Sprintf("tgt-%d-%s", s.counter, uuid.New().String()[:8]),
		LaunchPosition: launch,
		ImpactPosition: impact,
		LaunchTime:     now,
		FlightTimeS:    flightTime,
		Priority:       1 + s.rand.Float64()*4,
		Threat:         s.randomThreat(),
	}
	t.Trajectory = s.sampleTrajectory(t)
	return t
}

// sampleTrajectory interpolates launch to impact with a parabolic altitude
// profile peaking at the configured apex.
func (s *Spawner) sampleTrajectory(t *Target) []Sample {
	steps := int(t.FlightTimeS/s.cfg.SampleIntervalS) + 1
	samples := make([]Sample, 0, steps)
	for i := 0; i < steps; i++ {
		frac := float64(i) / float64(steps-1)
		if steps == 1 {
			frac = 0
		}
		lat := t.LaunchPosition.Lat + frac*(t.ImpactPosition.Lat-t.LaunchPosition.Lat)
		lon := t.LaunchPosition.Lon + frac*lonDelta(t.LaunchPosition.Lon, t.ImpactPosition.Lon)
		lon = normalizeLon(lon)
		alt := 4 * s.cfg.ApexAltKM * frac * (1 - frac)
		samples = append(samples, Sample{
			Position: geo.Position{Lat: lat, Lon: lon, AltKM: alt},
			Time:     t.LaunchTime.Add(time.Duration(float64(i)*s.cfg.SampleIntervalS) * time.Second),
		})
	}
	return samples
}

func (s *Spawner) randomZonePosition(zones []config.Zone) geo.Position {
	if len(zones) == 0 {
		return geo.Position{}
	}
	zone := zones[s.rand.Intn(len(zones))]
	angle := s.rand.Float64() * 2 * math.Pi
	r := s.rand.Float64() * zone.RadiusKM
	dLat := (r * math.Cos(angle)) / 111.0
	dLon := (r * math.Sin(angle)) / (111.0 * math.Cos(zone.CenterLat*math.Pi/180))
	return geo.Position{
		Lat: clampLat(zone.CenterLat + dLat),
		Lon: normalizeLon(zone.CenterLon + dLon),
	}
}

func (s *Spawner) randomThreat() ThreatLevel {
	levels := []ThreatLevel{ThreatLow, ThreatMedium, ThreatHigh, ThreatCritical}
	return levels[s.rand.Intn(len(levels))]
}

// lonDelta returns the signed shortest longitude difference from a to b.
func lonDelta(a, b float64) float64 {
	d := b - a
	for d > 180 {
		d -= 360
	}
	for d < -180 {
		d += 360
	}
	return d
}

func normalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

func clampLat(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}
