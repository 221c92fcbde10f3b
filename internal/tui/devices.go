// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"lipsync/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)
)

// ScreenType defines which screen is currently active
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

// Selection is the outcome of the device picker.
type Selection struct {
	DeviceID   int
	SampleRate float64
	Cancelled  bool
}

var (
	keyQuit   = key.NewBinding(key.WithKeys("q", "ctrl+c"))
	keyUp     = key.NewBinding(key.WithKeys("up", "k"))
	keyDown   = key.NewBinding(key.WithKeys("down", "j"))
	keySelect = key.NewBinding(key.WithKeys("enter"))
	keyBack   = key.NewBinding(key.WithKeys("esc"))
)

// DeviceListModel lets the user pick an input device and sample rate.
type DeviceListModel struct {
	devices       []audio.Device // input-capable only
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType

	availableSampleRates []float64
	sampleRateIndex      int

	selection Selection
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

func (m DeviceListModel) Init() tea.Cmd {
	return fetchDevices
}

func fetchDevices() tea.Msg {
	devices, err := audio.HostDevices()
	if err != nil {
		return errMsg{err}
	}
	return devicesMsg{devices}
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refresh()

	case devicesMsg:
		m.devices = m.devices[:0]
		for _, d := range msg.devices {
			if d.MaxInputChannels > 0 {
				m.devices = append(m.devices, d)
			}
		}
		m.refresh()

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, keyQuit) || m.err != nil {
			m.selection.Cancelled = true
			return m, tea.Quit
		}

		switch m.activeScreen {
		case ListScreen:
			switch {
			case key.Matches(msg, keyUp):
				if m.selectedIndex > 0 {
					m.selectedIndex--
				}
			case key.Matches(msg, keyDown):
				if m.selectedIndex < len(m.devices)-1 {
					m.selectedIndex++
				}
			case key.Matches(msg, keySelect):
				if len(m.devices) > 0 {
					m.activeScreen = ConfigScreen
					m.availableSampleRates = sampleRatesFor(m.devices[m.selectedIndex])
					m.sampleRateIndex = 0
				}
			}

		case ConfigScreen:
			switch {
			case key.Matches(msg, keyBack):
				m.activeScreen = ListScreen
			case key.Matches(msg, keyUp):
				if m.sampleRateIndex > 0 {
					m.sampleRateIndex--
				}
			case key.Matches(msg, keyDown):
				if m.sampleRateIndex < len(m.availableSampleRates)-1 {
					m.sampleRateIndex++
				}
			case key.Matches(msg, keySelect):
				m.selection = Selection{
					DeviceID:   m.devices[m.selectedIndex].ID,
					SampleRate: m.availableSampleRates[m.sampleRateIndex],
				}
				return m, tea.Quit
			}
		}
		m.refresh()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// sampleRatesFor lists the device default first, then common rates.
func sampleRatesFor(d audio.Device) []float64 {
	rates := []float64{d.DefaultSampleRate}
	for _, r := range []float64{44100, 48000, 88200, 96000} {
		if r != d.DefaultSampleRate {
			rates = append(rates, r)
		}
	}
	return rates
}

func (m *DeviceListModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ConfigScreen {
		m.viewport.SetContent(m.renderDeviceConfig())
	} else {
		m.viewport.SetContent(m.renderDevices())
	}
}

func (m DeviceListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress any key to exit.", m.err)
	}

	var title, help string

	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Input Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Configure • q: Quit")
	} else {
		title = titleStyle.Render("Device Configuration")
		help = infoStyle.Render("↑/↓: Change Value • Enter: Start • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DeviceListModel) renderDevices() string {
	var sb strings.Builder

	if len(m.devices) == 0 {
		return "No input devices found."
	}

	for i, device := range m.devices {
		deviceInfo := fmt.Sprintf("[%d] %s\n", device.ID, device.Name)
		deviceInfo += fmt.Sprintf("    Input channels: %d\n", device.MaxInputChannels)
		deviceInfo += fmt.Sprintf("    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)
		deviceInfo += fmt.Sprintf("    Latency: %.1f-%.1f ms\n",
			device.LowInputLatency.Seconds()*1000, device.HighInputLatency.Seconds()*1000)

		if i == m.selectedIndex {
			deviceInfo = highlightStyle.Render(deviceInfo)
		}

		sb.WriteString(deviceInfo)
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m DeviceListModel) renderDeviceConfig() string {
	var sb strings.Builder
	device := m.devices[m.selectedIndex]

	sb.WriteString(fmt.Sprintf("Configure Device: %s\n\n", device.Name))
	sb.WriteString("Sample Rate:\n")

	for i, rate := range m.availableSampleRates {
		marker := " "
		if i == m.sampleRateIndex {
			marker = "▶"
		}
		line := fmt.Sprintf("  %s %.0f Hz\n", marker, rate)
		if i == m.sampleRateIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
	}

	return sb.String()
}

// Selection returns the user's choice once the program has quit.
func (m DeviceListModel) Selection() Selection { return m.selection }

func NewDeviceListModel() DeviceListModel {
	return DeviceListModel{
		activeScreen: ListScreen,
	}
}

// PickDevice runs the picker full screen. PortAudio must be initialised.
func PickDevice() (Selection, error) {
	p := tea.NewProgram(
		NewDeviceListModel(),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return Selection{Cancelled: true}, err
	}
	return final.(DeviceListModel).Selection(), nil
}
