package viz

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/mdsim/internal/box"
	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/numeric"
	"github.com/san-kum/mdsim/internal/observables"
	"github.com/san-kum/mdsim/internal/particle"
)

const (
	canvasWidth  = 60
	canvasHeight = 24
	historyCap   = 600
)

type TickMsg time.Time

// Live is a bubbletea model advancing the simulation a few steps per
// frame and drawing the particle cloud next to the running observables.
type Live[V numeric.Vector[V]] struct {
	sys    *particle.System[V]
	bx     *box.Box[V]
	integ  md.Integrator
	clock  *observables.Clock
	thermo *observables.Thermodynamics[V]

	sorter       md.Sorter
	sortInterval int

	camera        *Camera
	canvas        *Canvas
	stepsPerFrame int
	running       bool
	showHelp      bool
	err           error

	enTotHist []float64
	tempHist  []float64
	last      struct {
		enPot, enKin, temp, pressure float64
	}
}

func NewLive[V numeric.Vector[V]](sys *particle.System[V], bx *box.Box[V], integ md.Integrator, clock *observables.Clock, thermo *observables.Thermodynamics[V]) *Live[V] {
	l := bx.Length()
	half := 0.0
	for k := 0; k < sys.Dim(); k++ {
		if l.At(k)/2 > half {
			half = l.At(k) / 2
		}
	}

	lv := &Live[V]{
		sys:           sys,
		bx:            bx,
		integ:         integ,
		clock:         clock,
		thermo:        thermo,
		stepsPerFrame: 5,
		running:       true,
	}
	if sys.Dim() == 3 {
		// camera view maps to [-1,1]; leave margin for rotation
		lv.camera = NewCamera(4)
		lv.canvas = NewCanvas(canvasWidth, canvasHeight, -1.2, 1.2, -1.2, 1.2)
	} else {
		lv.canvas = NewCanvas(canvasWidth, canvasHeight, -half*1.05, half*1.05, -half*1.05, half*1.05)
	}
	return lv
}

// SetSorter enables storage reordering every interval steps.
func (m *Live[V]) SetSorter(s md.Sorter, interval int) {
	m.sorter = s
	m.sortInterval = interval
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *Live[V]) Init() tea.Cmd { return tick() }

func (m *Live[V]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "+", "=":
			if m.stepsPerFrame < 200 {
				m.stepsPerFrame *= 2
			}
		case "-", "_":
			if m.stepsPerFrame > 1 {
				m.stepsPerFrame /= 2
			}
		case "?":
			m.showHelp = !m.showHelp
		case "x":
			m.rotate(0.1, 0, 0)
		case "X":
			m.rotate(-0.1, 0, 0)
		case "y":
			m.rotate(0, 0.1, 0)
		case "Y":
			m.rotate(0, -0.1, 0)
		case "z":
			m.rotate(0, 0, 0.1)
		case "Z":
			m.rotate(0, 0, -0.1)
		case "i":
			if m.camera != nil {
				m.camera.ZoomIn()
			}
		case "o":
			if m.camera != nil {
				m.camera.ZoomOut()
			}
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Live[V]) rotate(x, y, z float64) {
	if m.camera == nil {
		return
	}
	m.camera.RotateX(x)
	m.camera.RotateY(y)
	m.camera.RotateZ(z)
}

func (m *Live[V]) advance() {
	for i := 0; i < m.stepsPerFrame; i++ {
		sampling := i == m.stepsPerFrame-1
		if sampling {
			m.thermo.PrepareAux()
		}
		if err := m.integ.Integrate(); err != nil {
			m.err = err
			return
		}
		if err := m.sys.EnsureForce(false); err != nil {
			m.err = err
			return
		}
		if err := m.integ.Finalize(); err != nil {
			m.err = err
			return
		}
		m.clock.Advance()
		if m.sorter != nil && m.sortInterval > 0 && m.clock.Step()%uint64(m.sortInterval) == 0 {
			if err := m.sorter.Order(); err != nil {
				m.err = err
				return
			}
		}
	}

	enPot, err := m.thermo.EnPot()
	if err != nil {
		m.err = err
		return
	}
	pressure, err := m.thermo.Pressure()
	if err != nil {
		m.err = err
		return
	}
	enKin := m.thermo.EnKin()
	m.last.enPot = enPot
	m.last.enKin = enKin
	m.last.temp = m.thermo.Temperature()
	m.last.pressure = pressure
	m.enTotHist = appendCapped(m.enTotHist, enPot+enKin, historyCap)
	m.tempHist = appendCapped(m.tempHist, m.last.temp, historyCap)
}

func appendCapped(s []float64, v float64, limit int) []float64 {
	s = append(s, v)
	if len(s) > limit {
		s = s[1:]
	}
	return s
}

func (m *Live[V]) draw() {
	m.canvas.Clear()
	l := m.bx.Length()
	pos := m.sys.Position()

	if m.camera != nil {
		// edges of the centered box, rotated with the cloud
		half := [3]float64{l.At(0) / 2, l.At(1) / 2, l.At(2) / 2}
		norm := half[0]
		if half[1] > norm {
			norm = half[1]
		}
		if half[2] > norm {
			norm = half[2]
		}
		corner := func(i int) (float64, float64, float64) {
			sx, sy, sz := -1.0, -1.0, -1.0
			if i&1 != 0 {
				sx = 1
			}
			if i&2 != 0 {
				sy = 1
			}
			if i&4 != 0 {
				sz = 1
			}
			return sx * half[0] / norm, sy * half[1] / norm, sz * half[2] / norm
		}
		for a := 0; a < 8; a++ {
			for _, bit := range []int{1, 2, 4} {
				b := a | bit
				if b == a {
					continue
				}
				x0, y0, z0 := corner(a)
				x1, y1, z1 := corner(b)
				px0, py0, ok0 := m.camera.Project(x0, y0, z0)
				px1, py1, ok1 := m.camera.Project(x1, y1, z1)
				if ok0 && ok1 {
					m.canvas.Line(px0, py0, px1, py1)
				}
			}
		}
		for _, r := range pos {
			x, y, ok := m.camera.Project(
				(r.At(0)-half[0])/norm,
				(r.At(1)-half[1])/norm,
				(r.At(2)-half[2])/norm,
			)
			if ok {
				m.canvas.Plot(x, y)
			}
		}
		return
	}

	hx, hy := l.At(0)/2, l.At(1)/2
	m.canvas.Line(-hx, -hy, hx, -hy)
	m.canvas.Line(hx, -hy, hx, hy)
	m.canvas.Line(hx, hy, -hx, hy)
	m.canvas.Line(-hx, hy, -hx, -hy)
	for _, r := range pos {
		m.canvas.Plot(r.At(0)-hx, r.At(1)-hy)
	}
}

func (m *Live[V]) View() string {
	m.draw()

	status := StatusRunning.Render("running")
	if m.err != nil {
		status = StatusFailed.Render("failed")
	} else if !m.running {
		status = StatusPaused.Render("paused")
	}

	dt := m.integ.Timestep()
	stats := lipgloss.JoinVertical(lipgloss.Left,
		HeaderStyle.Render(fmt.Sprintf("%d particles, %dD  ", m.sys.Len(), m.sys.Dim()))+status,
		"",
		LabelStyle.Render("step")+ValueStyle.Render(fmt.Sprintf("%d", m.clock.Step())),
		LabelStyle.Render("time")+ValueStyle.Render(fmt.Sprintf("%.4f", float64(m.clock.Step())*dt)),
		LabelStyle.Render("steps/frame")+ValueStyle.Render(fmt.Sprintf("%d", m.stepsPerFrame)),
		"",
		LabelStyle.Render("E potential")+ValueStyle.Render(fmt.Sprintf("%+.5f", m.last.enPot)),
		LabelStyle.Render("E kinetic")+ValueStyle.Render(fmt.Sprintf("%+.5f", m.last.enKin)),
		LabelStyle.Render("E total")+ValueStyle.Render(fmt.Sprintf("%+.5f", m.last.enPot+m.last.enKin)),
		LabelStyle.Render("temperature")+ValueStyle.Render(fmt.Sprintf("%.5f", m.last.temp)),
		LabelStyle.Render("pressure")+ValueStyle.Render(fmt.Sprintf("%.5f", m.last.pressure)),
		"",
		LabelStyle.Render("E total")+GraphStyle.Render(Sparkline(m.enTotHist, 28)),
		LabelStyle.Render("temperature")+GraphStyle.Render(Sparkline(m.tempHist, 28)),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		PanelStyle.Render(m.canvas.String()),
		" ",
		PanelStyle.Render(stats),
	)

	help := HelpStyle.Render("space pause  +/- speed  q quit  ? help")
	if m.showHelp {
		help = HelpStyle.Render("space pause/resume  +/- steps per frame  x/X y/Y z/Z rotate  i/o zoom  q quit")
	}
	if m.err != nil {
		help = StatusFailed.Render(m.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, help)
}
