package game

import (
	"fmt"
	"math/rand"

	"github.com/wfunc/maze-game/internal/models"
)

// 生成参数
const (
	loopChance     = 0.3  // 追加环路的概率，让迷宫存在多条路径
	decorateChance = 0.4  // 房间使用非默认模板的概率
	adChance       = 0.15 // 无门墙面放置广告位的概率
)

// templatePalette 各装修模板的配色
type templatePalette struct {
	Wall    string
	Floor   string
	Ceiling string
	Door    string
}

var templatePalettes = map[string]templatePalette{
	models.TemplateDefault:      {Wall: "#808080", Floor: "#6B4E3D", Ceiling: "#EEEEEE", Door: "#8B4513"},
	models.TemplateHalloween:    {Wall: "#2E1A0F", Floor: "#3D2817", Ceiling: "#1A0F08", Door: "#FF6600"},
	models.TemplateChristmas:    {Wall: "#B22222", Floor: "#F5F5F5", Ceiling: "#FFFFFF", Door: "#006400"},
	models.TemplateModernOffice: {Wall: "#E8E8E8", Floor: "#C0C0C0", Ceiling: "#FFFFFF", Door: "#4A4A4A"},
	models.TemplateOldSalon:     {Wall: "#8B0000", Floor: "#5C4033", Ceiling: "#D2B48C", Door: "#654321"},
	models.TemplateSpaceship:    {Wall: "#1C2833", Floor: "#2C3E50", Ceiling: "#17202A", Door: "#5DADE2"},
	models.TemplateUnderwater:   {Wall: "#006994", Floor: "#004C6D", Ceiling: "#00A8CC", Door: "#00CED1"},
	models.TemplateForest:       {Wall: "#228B22", Floor: "#8B7355", Ceiling: "#90EE90", Door: "#556B2F"},
	models.TemplateDesert:       {Wall: "#EDC9AF", Floor: "#C19A6B", Ceiling: "#FFE4C4", Door: "#8B7D6B"},
	models.TemplateCyberpunk:    {Wall: "#0D0221", Floor: "#190535", Ceiling: "#240646", Door: "#FF00FF"},
	models.TemplateMedieval:     {Wall: "#696969", Floor: "#4F4F4F", Ceiling: "#808080", Door: "#43302E"},
}

// Layout 生成的迷宫布局，尚未持久化
type Layout struct {
	Width   int
	Height  int
	Rooms   []*models.Room
	Portals []*models.Portal
}

// RoomAt 返回指定坐标的房间
func (l *Layout) RoomAt(x, y int) *models.Room {
	if x < 0 || x >= l.Width || y < 0 || y >= l.Height {
		return nil
	}
	return l.Rooms[y*l.Width+x]
}

// Generator 迷宫生成器
type Generator struct {
	rng *rand.Rand
}

// NewGenerator 创建迷宫生成器
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Generate 生成迷宫布局：先用深度优先算法雕刻出完全连通的通路，
// 再按概率追加环路，最后放置装修、广告位和传送门
func (g *Generator) Generate(width, height, portalCount int) (*Layout, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("迷宫尺寸太小: %dx%d", width, height)
	}

	layout := &Layout{
		Width:  width,
		Height: height,
		Rooms:  make([]*models.Room, width*height),
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			layout.Rooms[y*width+x] = &models.Room{X: x, Y: y}
		}
	}

	g.carve(layout)
	g.addLoops(layout)
	g.decorate(layout)
	g.placeAds(layout)
	g.placePortals(layout, portalCount)

	return layout, nil
}

// carve 从起点出发做迭代式深度优先雕刻，保证所有房间连通
func (g *Generator) carve(layout *Layout) {
	type coord struct{ x, y int }

	visited := make([]bool, len(layout.Rooms))
	visited[0] = true

	stack := []coord{{0, 0}}
	for len(stack) > 0 {
		current := stack[len(stack)-1]

		// 收集未访问的相邻房间
		var candidates []string
		for _, dir := range Directions {
			dx, dy := Delta(dir)
			nx, ny := current.x+dx, current.y+dy
			if nx < 0 || nx >= layout.Width || ny < 0 || ny >= layout.Height {
				continue
			}
			if !visited[ny*layout.Width+nx] {
				candidates = append(candidates, dir)
			}
		}

		if len(candidates) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		dir := candidates[g.rng.Intn(len(candidates))]
		dx, dy := Delta(dir)
		nx, ny := current.x+dx, current.y+dy

		// 双向开门
		layout.RoomAt(current.x, current.y).SetDoor(dir, true)
		layout.RoomAt(nx, ny).SetDoor(Opposite(dir), true)

		visited[ny*layout.Width+nx] = true
		stack = append(stack, coord{nx, ny})
	}
}

// addLoops 按概率追加北向或东向的环路
func (g *Generator) addLoops(layout *Layout) {
	for y := 0; y < layout.Height; y++ {
		for x := 0; x < layout.Width; x++ {
			if g.rng.Float64() >= loopChance {
				continue
			}

			dir := models.WallNorth
			if g.rng.Intn(2) == 0 {
				dir = models.WallEast
			}

			dx, dy := Delta(dir)
			neighbor := layout.RoomAt(x+dx, y+dy)
			if neighbor == nil {
				continue
			}

			room := layout.RoomAt(x, y)
			if room.HasDoor(dir) {
				continue
			}

			room.SetDoor(dir, true)
			neighbor.SetDoor(Opposite(dir), true)
		}
	}
}

// decorate 给每个房间生成装修，部分房间使用主题模板
func (g *Generator) decorate(layout *Layout) {
	for _, room := range layout.Rooms {
		template := models.TemplateDefault
		if g.rng.Float64() < decorateChance {
			template = models.RoomTemplates[1+g.rng.Intn(len(models.RoomTemplates)-1)]
		}

		palette := templatePalettes[template]
		room.Design = &models.RoomDesign{
			Template:     template,
			WallColor:    palette.Wall,
			FloorColor:   palette.Floor,
			CeilingColor: palette.Ceiling,
			DoorColor:    palette.Door,
		}
	}
}

// placeAds 在无门的墙面按概率放置广告位
func (g *Generator) placeAds(layout *Layout) {
	for _, room := range layout.Rooms {
		for _, wall := range room.WallsWithoutDoors() {
			if g.rng.Float64() >= adChance {
				continue
			}
			room.Ads = append(room.Ads, models.RoomAd{
				Wall:        wall,
				AdType:      "canvas",
				ContentText: "广告位招租",
				IsActive:    true,
			})
		}
	}
}

// placePortals 在随机房间放置传送门，起点房间除外
func (g *Generator) placePortals(layout *Layout, count int) {
	styles := []string{"default", "fire", "ice", "electric"}

	placed := 0
	attempts := 0
	maxAttempts := count * 20

	for placed < count && attempts < maxAttempts {
		attempts++
		x := g.rng.Intn(layout.Width)
		y := g.rng.Intn(layout.Height)
		if x == 0 && y == 0 {
			continue
		}

		room := layout.RoomAt(x, y)
		if room.HasPortal {
			continue
		}

		room.HasPortal = true
		layout.Portals = append(layout.Portals, &models.Portal{
			RoomX:       x,
			RoomY:       y,
			PortalStyle: styles[g.rng.Intn(len(styles))],
			IsActive:    true,
		})
		placed++
	}
}
