package scroll

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"
)

// SpringConfig 描述平滑滚动使用的阻尼弹簧。
type SpringConfig struct {
	FPS       int
	Frequency float64
	Damping   float64
}

// DefaultSpring 为临界阻尼弹簧，约 0.5s 内基本收敛。
func DefaultSpring() SpringConfig {
	return SpringConfig{FPS: 60, Frequency: 12, Damping: 1}
}

func (c SpringConfig) normalize() SpringConfig {
	def := DefaultSpring()
	if c.FPS <= 0 {
		c.FPS = def.FPS
	}
	if c.Frequency <= 0 {
		c.Frequency = def.Frequency
	}
	if c.Damping <= 0 {
		c.Damping = def.Damping
	}
	return c
}

// Actuator 执行滚动到底部，并持有“程序滚动进行中”令牌，
// 防止滚动动画期间的可见性与滚动事件被误判为用户操作。
type Actuator struct {
	sched     Scheduler
	container Container
	duration  time.Duration
	spring    harmonica.Spring
	// moved 在每次写入偏移后调用，通常用于触发可见性检查。
	moved func()

	token         uint64
	lastToken     uint64
	cancelRelease func()
	anim          *animation
	animGen       uint64
	actuations    int
}

type animation struct {
	gen uint64
	pos float64
	vel float64
}

// NewActuator 创建执行器；duration<=0 时使用 DefaultSmoothDuration。
func NewActuator(sched Scheduler, duration time.Duration, spring SpringConfig, moved func()) *Actuator {
	if duration <= 0 {
		duration = DefaultSmoothDuration
	}
	spring = spring.normalize()
	return &Actuator{
		sched:    sched,
		duration: duration,
		spring:   harmonica.NewSpring(harmonica.FPS(spring.FPS), spring.Frequency, spring.Damping),
		moved:    moved,
	}
}

// Attach 设置目标容器；nil 表示卸载并停止正在进行的动画。
func (a *Actuator) Attach(c Container) {
	if a == nil {
		return
	}
	a.container = c
	if c == nil {
		a.stopAnimation()
	}
}

// InFlight 报告由核心发起的滚动是否仍在进行。
func (a *Actuator) InFlight() bool {
	return a != nil && a.token != 0
}

// Animating 报告平滑滚动动画是否仍在逐帧推进。
func (a *Actuator) Animating() bool {
	return a != nil && a.anim != nil
}

// Actuations 返回累计发起的滚动次数。
func (a *Actuator) Actuations() int {
	if a == nil {
		return 0
	}
	return a.actuations
}

// ScrollToBottom 将锚点滚动到可视区底边。容器未挂载时为 no-op 并返回 false。
//
// 非平滑：直接写入最大偏移，写入完成后立即释放令牌（写入期间同步触发的滚动事件仍被抑制）。
// 平滑：逐帧按弹簧逼近实时底部；收敛或到达时长上限时对齐目标，
// 并在随后的可见性检查之后释放令牌。
// 没有调度器时平滑滚动退化为非平滑滚动。
func (a *Actuator) ScrollToBottom(smooth bool) bool {
	if a == nil || a.container == nil {
		return false
	}
	a.actuations++
	tok := a.acquire()
	if !smooth || a.sched == nil {
		a.stopAnimation()
		a.write(maxOffset(a.container))
		a.release(tok)
		return true
	}

	if a.anim == nil {
		a.animGen++
		a.anim = &animation{gen: a.animGen, pos: float64(a.container.ScrollOffset())}
		gen := a.animGen
		a.sched.RequestFrame(func() { a.step(gen) })
	}
	a.cancelRelease = a.sched.AfterFunc(a.duration, func() {
		if a.token != tok {
			return
		}
		a.finish(tok)
	})
	return true
}

// SetOffset 以程序滚动的身份写入偏移，写入后立即释放令牌。
func (a *Actuator) SetOffset(offset int) bool {
	if a == nil || a.container == nil {
		return false
	}
	tok := a.acquire()
	a.stopAnimation()
	a.write(clampOffset(a.container, offset))
	a.release(tok)
	return true
}

func (a *Actuator) acquire() uint64 {
	if a.cancelRelease != nil {
		a.cancelRelease()
		a.cancelRelease = nil
	}
	a.lastToken++
	a.token = a.lastToken
	return a.token
}

func (a *Actuator) release(tok uint64) {
	if a.token != tok {
		return
	}
	a.token = 0
	if a.cancelRelease != nil {
		a.cancelRelease()
		a.cancelRelease = nil
	}
}

func (a *Actuator) write(offset int) {
	a.container.SetScrollOffset(offset)
	if a.moved != nil {
		a.moved()
	}
}

func (a *Actuator) step(gen uint64) {
	anim := a.anim
	if anim == nil || anim.gen != gen {
		return
	}
	if a.container == nil {
		a.stopAnimation()
		return
	}
	// 目标每帧重新计算，以跟上动画期间的内容增长。
	target := float64(maxOffset(a.container))
	anim.pos, anim.vel = a.spring.Update(anim.pos, anim.vel, target)
	if math.Abs(target-anim.pos) < 0.5 && math.Abs(anim.vel) < 0.5 {
		a.finish(a.token)
		return
	}
	a.write(clampOffset(a.container, int(math.Round(anim.pos))))
	a.sched.RequestFrame(func() { a.step(gen) })
}

// finish 对齐到底部并停止动画；令牌在观察阶段释放，排在写入触发的可见性检查之后。
func (a *Actuator) finish(tok uint64) {
	a.stopAnimation()
	if a.container != nil {
		a.write(maxOffset(a.container))
	}
	if tok == 0 {
		return
	}
	if a.sched == nil {
		a.release(tok)
		return
	}
	a.sched.RequestObservation(func() { a.release(tok) })
}

func (a *Actuator) stopAnimation() {
	a.anim = nil
	a.animGen++
}
