package game

import (
	"github.com/wfunc/maze-game/internal/models"
)

// Directions 所有合法的移动方向
var Directions = []string{
	models.WallNorth,
	models.WallSouth,
	models.WallEast,
	models.WallWest,
}

// IsValidDirection 检查方向是否合法
func IsValidDirection(direction string) bool {
	switch direction {
	case models.WallNorth, models.WallSouth, models.WallEast, models.WallWest:
		return true
	default:
		return false
	}
}

// Delta 返回方向对应的坐标增量，北为+y、东为+x
func Delta(direction string) (dx, dy int) {
	switch direction {
	case models.WallNorth:
		return 0, 1
	case models.WallSouth:
		return 0, -1
	case models.WallEast:
		return 1, 0
	case models.WallWest:
		return -1, 0
	}
	return 0, 0
}

// Opposite 返回相反的方向
func Opposite(direction string) string {
	switch direction {
	case models.WallNorth:
		return models.WallSouth
	case models.WallSouth:
		return models.WallNorth
	case models.WallEast:
		return models.WallWest
	case models.WallWest:
		return models.WallEast
	}
	return ""
}
