package trace

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"cp1610/bus"
	"cp1610/cpu"
	"cp1610/inst"
)

// Inspector is an interactive bubbletea model for single-stepping a CPU one
// host tick at a time, showing registers, flags, bus phase, and the
// decoded contents of the instruction register (the last fetched opcode).
type Inspector struct {
	Bus     *bus.Bus
	CPU     *cpu.CPU
	Devices []bus.Device

	ticks   int
	lastErr error

	sawUnknown    bool
	lastUnknownPC uint16
	lastUnknownOp uint16
}

func (m Inspector) Init() tea.Cmd { return nil }

func (m Inspector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ", "j":
		m.step()
	case "J":
		for i := 0; i < 4; i++ {
			m.step()
		}
	}
	return m, nil
}

func (m *Inspector) step() {
	defer func() {
		if r := recover(); r != nil {
			if fe, ok := r.(*cpu.FaultError); ok {
				m.lastErr = fe
				return
			}
			panic(r)
		}
	}()
	m.CPU.TraceUnknownOpcode = func(pc, opcode uint16) {
		m.sawUnknown = true
		m.lastUnknownPC = pc
		m.lastUnknownOp = opcode
	}
	m.Bus.Clock()
	m.CPU.Clock(m.Bus)
	for _, d := range m.Devices {
		d.Clock(m.Bus)
	}
	m.ticks++
}

func (m Inspector) registers() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ticks: %d\n", m.ticks)
	for i, r := range m.CPU.R {
		fmt.Fprintf(&b, "R%d: %04x\n", i, r)
	}
	return b.String()
}

func (m Inspector) flags() string {
	f := m.CPU.F
	return fmt.Sprintf("SCZOID\n%s", flagString(f))
}

func (m Inspector) busLine() string {
	s := fmt.Sprintf("phase: %-5s data: %04x tick: %d", m.Bus.Phase, m.Bus.Data(), m.Bus.Tick())
	if m.sawUnknown {
		s += fmt.Sprintf("\nunknown opcode pc=%04x opcode=%03x", m.lastUnknownPC, m.lastUnknownOp&0x3FF)
	}
	if m.lastErr != nil {
		s += "\nFAULT: " + m.lastErr.Error()
	}
	return s
}

func (m Inspector) decoded() string {
	entry, ok := inst.Decode(m.CPU.IR)
	if !ok {
		return "ir: (none decoded)"
	}
	return spew.Sdump(entry)
}

func (m Inspector) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.registers(),
			"  ",
			m.flags(),
		),
		"",
		m.busLine(),
		"",
		m.decoded(),
		"",
		"space/j: step   J: step 4   q: quit",
	)
}

// Run starts the interactive inspector, blocking until the user quits.
func Run(b *bus.Bus, c *cpu.CPU, devices []bus.Device) error {
	_, err := tea.NewProgram(Inspector{Bus: b, CPU: c, Devices: devices}).Run()
	return err
}
