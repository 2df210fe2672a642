package seed

import (
	"math"
	"math/rand"
	"time"
)

type Sensor struct {
	Name     string
	Location string
	Unit     string
	base     float64
	swing    float64
	noise    float64
}

var sensorCatalog = []Sensor{
	{Name: "temp-lab", Location: "lab", Unit: "celsius", base: 21, swing: 3, noise: 0.4},
	{Name: "temp-roof", Location: "roof", Unit: "celsius", base: 14, swing: 8, noise: 1.2},
	{Name: "humidity-lab", Location: "lab", Unit: "percent", base: 45, swing: 10, noise: 2},
	{Name: "pressure-roof", Location: "roof", Unit: "hpa", base: 1013, swing: 4, noise: 0.8},
	{Name: "co2-office", Location: "office", Unit: "ppm", base: 600, swing: 250, noise: 30},
}

type Reading struct {
	ID        int64
	CreatedAt time.Time
	Sensor    string
	Value     float64
}

// Generator yields one reading per sensor per tick, following a daily cycle.
// The same seed always produces the same sequence.
type Generator struct {
	rnd      *rand.Rand
	sensors  []Sensor
	start    time.Time
	interval time.Duration
	tick     int
	next     int
	sequence int64
}

func NewGenerator(seed int64, sensors int, start time.Time, interval time.Duration) *Generator {
	if sensors <= 0 || sensors > len(sensorCatalog) {
		sensors = len(sensorCatalog)
	}
	return &Generator{
		rnd:      rand.New(rand.NewSource(seed)),
		sensors:  sensorCatalog[:sensors],
		start:    start.UTC(),
		interval: interval,
	}
}

func (g *Generator) Sensors() []Sensor {
	return g.sensors
}

func (g *Generator) NextReading() Reading {
	sensor := g.sensors[g.next]
	at := g.start.Add(time.Duration(g.tick) * g.interval)

	g.sequence++
	g.next++
	if g.next == len(g.sensors) {
		g.next = 0
		g.tick++
	}

	phase := 2 * math.Pi * float64(at.Hour()*60+at.Minute()) / (24 * 60)
	value := sensor.base + sensor.swing*math.Sin(phase-math.Pi/2) + g.rnd.NormFloat64()*sensor.noise
	return Reading{
		ID:        g.sequence,
		CreatedAt: at,
		Sensor:    sensor.Name,
		Value:     round2(value),
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
