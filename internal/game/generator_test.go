package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/maze-game/internal/models"
)

// 测试生成的迷宫所有房间连通
func TestGeneratorConnectivity(t *testing.T) {
	sizes := []struct{ w, h int }{{3, 3}, {5, 5}, {10, 10}}

	for _, size := range sizes {
		gen := NewGenerator(42)
		layout, err := gen.Generate(size.w, size.h, 0)
		require.NoError(t, err)
		require.Len(t, layout.Rooms, size.w*size.h)

		// 从起点广度优先遍历，应该能到达每一个房间
		visited := make(map[[2]int]bool)
		queue := [][2]int{{0, 0}}
		visited[[2]int{0, 0}] = true

		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			room := layout.RoomAt(cur[0], cur[1])

			for _, dir := range Directions {
				if !room.HasDoor(dir) {
					continue
				}
				dx, dy := Delta(dir)
				next := [2]int{cur[0] + dx, cur[1] + dy}
				if next[0] < 0 || next[0] >= size.w || next[1] < 0 || next[1] >= size.h {
					continue
				}
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}

		assert.Equal(t, size.w*size.h, len(visited), "尺寸 %dx%d 的迷宫应该完全连通", size.w, size.h)
	}
}

// 测试门的双向一致性
func TestGeneratorDoorSymmetry(t *testing.T) {
	gen := NewGenerator(7)
	layout, err := gen.Generate(6, 6, 0)
	require.NoError(t, err)

	for _, room := range layout.Rooms {
		for _, dir := range Directions {
			if !room.HasDoor(dir) {
				continue
			}
			dx, dy := Delta(dir)
			neighbor := layout.RoomAt(room.X+dx, room.Y+dy)

			// 边界上不应该有通向外部的门
			require.NotNil(t, neighbor, "房间(%d,%d)的%s门通向迷宫外", room.X, room.Y, dir)
			assert.True(t, neighbor.HasDoor(Opposite(dir)),
				"房间(%d,%d)有%s门但邻居没有对应的门", room.X, room.Y, dir)
		}
	}
}

// 测试相同种子生成相同迷宫
func TestGeneratorDeterministic(t *testing.T) {
	l1, err := NewGenerator(123).Generate(5, 5, 3)
	require.NoError(t, err)
	l2, err := NewGenerator(123).Generate(5, 5, 3)
	require.NoError(t, err)

	for i := range l1.Rooms {
		assert.Equal(t, l1.Rooms[i].DoorNorth, l2.Rooms[i].DoorNorth)
		assert.Equal(t, l1.Rooms[i].DoorSouth, l2.Rooms[i].DoorSouth)
		assert.Equal(t, l1.Rooms[i].DoorEast, l2.Rooms[i].DoorEast)
		assert.Equal(t, l1.Rooms[i].DoorWest, l2.Rooms[i].DoorWest)
	}
	assert.Equal(t, len(l1.Portals), len(l2.Portals))
}

// 测试广告位只出现在无门的墙面
func TestGeneratorAdsOnDoorlessWalls(t *testing.T) {
	gen := NewGenerator(99)
	layout, err := gen.Generate(8, 8, 0)
	require.NoError(t, err)

	for _, room := range layout.Rooms {
		for _, ad := range room.Ads {
			assert.False(t, room.HasDoor(ad.Wall),
				"房间(%d,%d)的%s墙有门却放置了广告", room.X, room.Y, ad.Wall)
		}
	}
}

// 测试传送门不会出现在起点
func TestGeneratorPortalsExcludeStart(t *testing.T) {
	gen := NewGenerator(5)
	layout, err := gen.Generate(5, 5, 5)
	require.NoError(t, err)
	require.Len(t, layout.Portals, 5)

	for _, portal := range layout.Portals {
		assert.False(t, portal.RoomX == 0 && portal.RoomY == 0, "起点房间不应该有传送门")
	}

	// HasPortal标记与传送门列表一致
	start := layout.RoomAt(0, 0)
	assert.False(t, start.HasPortal)
}

// 测试每个房间都有装修
func TestGeneratorDecor(t *testing.T) {
	gen := NewGenerator(11)
	layout, err := gen.Generate(4, 4, 0)
	require.NoError(t, err)

	for _, room := range layout.Rooms {
		require.NotNil(t, room.Design, "房间(%d,%d)缺少装修", room.X, room.Y)
		assert.Contains(t, append([]string{}, models.RoomTemplates...), room.Design.Template)
		assert.NotEmpty(t, room.Design.WallColor)
	}
}

// 测试尺寸过小时生成失败
func TestGeneratorTooSmall(t *testing.T) {
	_, err := NewGenerator(1).Generate(1, 1, 0)
	assert.Error(t, err)
}
