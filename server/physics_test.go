package server

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestStepMarbleLandsOnGround(t *testing.T) {
	p := newPlayer("p", mgl64.Vec3{0, 10, 0}, nil)
	for i := 0; i < 120; i++ {
		stepMarble(p, 1.0/60)
	}
	assert.InDelta(t, MarbleRadius, p.Pos.Y(), 1e-9)
	assert.InDelta(t, 0, p.Vel.Y(), 1e-9)
}

func TestStepMarbleSpeedCap(t *testing.T) {
	p := newPlayer("p", mgl64.Vec3{0, MarbleRadius, 0}, nil)
	p.Steer = mgl64.Vec3{1, 0, 0}
	for i := 0; i < 240; i++ {
		stepMarble(p, 1.0/60)
		h := mgl64.Vec3{p.Vel.X(), 0, p.Vel.Z()}
		assert.LessOrEqual(t, h.Len(), MaxSpeedNormal+1e-9)
	}
	assert.InDelta(t, MaxSpeedNormal, p.Vel.X(), 1e-9)
	assert.Less(t, p.Pos.X(), ArenaHalfSize)

	// 回到场地中央，避免加速阶段撞墙
	p.Pos = mgl64.Vec3{-ArenaHalfSize / 2, MarbleRadius, 0}
	p.Boost = true
	for i := 0; i < 120; i++ {
		stepMarble(p, 1.0/60)
	}
	assert.Less(t, p.Pos.X(), ArenaHalfSize)
	h := mgl64.Vec3{p.Vel.X(), 0, p.Vel.Z()}
	assert.Greater(t, h.Len(), MaxSpeedNormal)
	assert.LessOrEqual(t, h.Len(), MaxSpeedBoost+1e-9)
}

func TestStepMarbleIgnoresSteerInsideDeadzone(t *testing.T) {
	p := newPlayer("p", mgl64.Vec3{0, MarbleRadius, 0}, nil)
	p.Steer = mgl64.Vec3{Deadzone / 2, 0, 0}
	stepMarble(p, 1.0/60)
	assert.Zero(t, p.Vel.X())
	assert.Zero(t, p.Roll)
}

func TestStepMarbleClampsToArena(t *testing.T) {
	p := newPlayer("p", mgl64.Vec3{ArenaHalfSize - 0.1, MarbleRadius, -ArenaHalfSize + 0.1}, nil)
	p.Vel = mgl64.Vec3{20, 0, -20}
	stepMarble(p, 0.1)
	assert.Equal(t, ArenaHalfSize, p.Pos.X())
	assert.Equal(t, -ArenaHalfSize, p.Pos.Z())
	assert.Zero(t, p.Vel.X())
	assert.Zero(t, p.Vel.Z())
}
