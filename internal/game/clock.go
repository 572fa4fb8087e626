package game

import "time"

// Clock 时间源接口，测试时可注入假时钟
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// NewClock 创建真实时钟
func NewClock() Clock {
	return realClock{}
}

// FakeClock 测试用假时钟
type FakeClock struct {
	Current time.Time
}

// Now 返回当前设定的时间
func (c *FakeClock) Now() time.Time {
	return c.Current
}

// Advance 前进指定时长
func (c *FakeClock) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}
