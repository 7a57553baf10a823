package scripting

import (
	"fmt"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// APIVersion is exposed to plugins as renderer.api_version.
const APIVersion = 1

// FrameStats is passed to every frame listener after a frame is drawn.
type FrameStats struct {
	Frame     uint64
	DT        time.Duration
	Nodes     int
	Viewports int
	Glyphs    int
}

type listener struct {
	plugin string
	fn     *lua.LFunction
}

// Host runs renderer plugins in a single gopher-lua VM. Single-goroutine
// access only (the frame loop).
type Host struct {
	vm        *lua.LState
	listeners []listener
	loading   string
	plugins   []string
	log       *zap.Logger
}

// NewHost creates the VM and loads every plugin in the manifest. A plugin
// that fails to load is a fatal error: the manifest declares it required.
func NewHost(m *Manifest, log *zap.Logger) (*Host, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	h := &Host{vm: vm, log: log}
	h.installAPI()

	if m != nil {
		for _, path := range m.Paths() {
			if err := h.load(path); err != nil {
				vm.Close()
				return nil, err
			}
		}
	}
	return h, nil
}

func (h *Host) installAPI() {
	api := h.vm.NewTable()
	api.RawSetString("api_version", lua.LNumber(APIVersion))
	api.RawSetString("register_frame_listener", h.vm.NewFunction(h.luaRegisterFrameListener))
	api.RawSetString("log", h.vm.NewFunction(h.luaLog))
	h.vm.SetGlobal("renderer", api)
}

func (h *Host) load(path string) error {
	h.loading = filepath.Base(path)
	defer func() { h.loading = "" }()
	if err := h.vm.DoFile(path); err != nil {
		return fmt.Errorf("load plugin %s: %w", path, err)
	}
	h.plugins = append(h.plugins, h.loading)
	h.log.Info("renderer plugin loaded", zap.String("plugin", h.loading))
	return nil
}

func (h *Host) luaRegisterFrameListener(L *lua.LState) int {
	fn := L.CheckFunction(1)
	h.listeners = append(h.listeners, listener{plugin: h.loading, fn: fn})
	return 0
}

func (h *Host) luaLog(L *lua.LState) int {
	h.log.Info("plugin", zap.String("plugin", h.loading), zap.String("msg", L.CheckString(1)))
	return 0
}

// Plugins returns the loaded plugin file names in load order.
func (h *Host) Plugins() []string { return h.plugins }

// Listeners returns the number of registered frame listeners.
func (h *Host) Listeners() int { return len(h.listeners) }

// FrameEnded calls every frame listener and collects the strings they return
// as overlay lines. A listener that raises an error is logged and skipped for
// this frame.
func (h *Host) FrameEnded(stats FrameStats) []string {
	if len(h.listeners) == 0 {
		return nil
	}
	t := h.vm.NewTable()
	t.RawSetString("frame", lua.LNumber(stats.Frame))
	t.RawSetString("dt_ms", lua.LNumber(float64(stats.DT)/float64(time.Millisecond)))
	t.RawSetString("nodes", lua.LNumber(stats.Nodes))
	t.RawSetString("viewports", lua.LNumber(stats.Viewports))
	t.RawSetString("glyphs", lua.LNumber(stats.Glyphs))

	var lines []string
	for _, l := range h.listeners {
		if err := h.vm.CallByParam(lua.P{
			Fn:      l.fn,
			NRet:    1,
			Protect: true,
		}, t); err != nil {
			h.log.Error("frame listener failed", zap.String("plugin", l.plugin), zap.Error(err))
			continue
		}
		ret := h.vm.Get(-1)
		h.vm.Pop(1)
		if s, ok := ret.(lua.LString); ok && s != "" {
			lines = append(lines, string(s))
		}
	}
	return lines
}

func (h *Host) Close() {
	h.vm.Close()
}
