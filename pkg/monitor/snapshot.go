package monitor

import (
	"fmt"
	"strings"

	"github.com/decker502/orbgallery/pkg/app"
	"github.com/decker502/orbgallery/pkg/components"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/systems"
)

// ShelfView 一层货架的占用情况
type ShelfView struct {
	Name     string
	Occupied []bool
}

// ProjectorView 一个投影区的状态
type ProjectorView struct {
	Name      string
	State     systems.ProjectorState
	Media     systems.MediaKind
	Subject   string
	Alpha     float64
	Vibrating bool
}

// Snapshot 某一帧的场景摘要
type Snapshot struct {
	Frame       uint64
	Orbs        int
	Shelves     []ShelfView
	Capacity    int
	Stored      int
	Queued      int
	Rejected    int
	Projectors  []ProjectorView
	Projections int
	Paused      bool
}

// Capture 从场景读取摘要
func Capture(in *app.Installation) Snapshot {
	em := in.EntityManager()
	s := Snapshot{
		Frame:    in.Frame(),
		Orbs:     len(in.Orbs()),
		Capacity: in.Capacity(),
	}

	if set := in.Shelves(); set != nil {
		// 控制点不足的曲线在构建场景时被跳过
		var names []string
		for _, c := range in.Config().Shelves.Curves {
			if len(c.Points) >= 3 {
				names = append(names, c.Name)
			}
		}
		for i := 0; i < set.ShelfCount(); i++ {
			view := ShelfView{Name: fmt.Sprintf("shelf %d", i)}
			if i < len(names) && names[i] != "" {
				view.Name = names[i]
			}
			for j := 0; j < set.ShelfLen(i); j++ {
				slot, _ := set.Slot(i, j)
				view.Occupied = append(view.Occupied, slot.Occupied())
				if slot.Occupied() {
					s.Stored++
				}
			}
			s.Shelves = append(s.Shelves, view)
		}
	}
	if st := in.Storage(); st != nil {
		s.Queued = len(st.Pending())
		s.Rejected = len(st.Rejected())
	}

	configs := in.Config().Projectors
	for i, p := range in.Projectors() {
		view := ProjectorView{
			Name:      fmt.Sprintf("projector %d", i),
			State:     p.State(),
			Media:     p.Media(),
			Alpha:     p.ScreenAlpha(),
			Vibrating: p.Vibrating(),
		}
		if i < len(configs) && configs[i].Name != "" {
			view.Name = configs[i].Name
		}
		if orb, ok := ecs.GetComponent[*components.OrbComponent](em, p.Subject()); ok && orb.Record != nil {
			view.Subject = orb.Record.Name
		}
		s.Projectors = append(s.Projectors, view)
	}

	for _, z := range in.ProjectionZones() {
		s.Projections += len(z.Projections())
	}
	return s
}

// Lines 把摘要排成文本行
//
// 货架每个槽位一个字符：'#' 占用，'.' 空闲。
func (s Snapshot) Lines() []string {
	lines := []string{
		fmt.Sprintf("frame %d  orbs %d  stored %d/%d  queued %d  rejected %d",
			s.Frame, s.Orbs, s.Stored, s.Capacity, s.Queued, s.Rejected),
	}
	if s.Paused {
		lines[0] += "  [paused]"
	}
	lines = append(lines, "")

	if len(s.Shelves) == 0 {
		lines = append(lines, "shelves disabled")
	}
	width := 0
	for _, sh := range s.Shelves {
		width = max(width, len(sh.Name))
	}
	// 上层货架在上
	for i := len(s.Shelves) - 1; i >= 0; i-- {
		sh := s.Shelves[i]
		var b strings.Builder
		for _, occupied := range sh.Occupied {
			if occupied {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		lines = append(lines, fmt.Sprintf("%-*s [%s]", width, sh.Name, b.String()))
	}
	lines = append(lines, "")

	for _, p := range s.Projectors {
		line := fmt.Sprintf("%s: %s", p.Name, p.State)
		if p.Subject != "" {
			line += fmt.Sprintf("  orb=%q", p.Subject)
		}
		if p.Media != systems.MediaNone {
			line += fmt.Sprintf("  media=%s alpha=%.2f", p.Media, p.Alpha)
		}
		if p.Vibrating {
			line += "  ~"
		}
		lines = append(lines, line)
	}
	if s.Projections > 0 {
		lines = append(lines, fmt.Sprintf("projections %d", s.Projections))
	}
	return lines
}
