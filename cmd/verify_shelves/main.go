package main

import (
	"flag"
	"log"
	"os"

	"github.com/decker502/orbgallery/pkg/config"
	"github.com/decker502/orbgallery/pkg/ecs"
	"github.com/decker502/orbgallery/pkg/shelf"
)

var (
	configPath = flag.String("config", "data/installation.yaml", "装置配置文件")
	policyName = flag.String("policy", "", "槽位分配策略（bitmap | cursor），默认取配置文件")
)

// check 一项验证结果
type check struct {
	name string
	ok   bool
}

func main() {
	flag.Parse()

	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ltime)

	log.Printf("====== 曲线货架验证 ======")
	log.Printf("配置: %s", *configPath)

	cfg, err := config.LoadInstallationConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	policy := *policyName
	if policy == "" {
		policy = cfg.Storage.Policy
	}

	// 1. 采样曲线
	log.Println("\n>>> 步骤 1: 采样货架曲线")
	curves := make([]*shelf.Curve, 0, len(cfg.Shelves.Curves))
	for i, cc := range cfg.Shelves.Curves {
		c, err := shelf.NewCurve(cc.Name, cc.Points, cfg.Shelves.Resolution)
		if err != nil {
			log.Printf("  货架 %d (%s) 已禁用: %v", i, cc.Name, err)
			continue
		}
		curves = append(curves, c)
	}
	set := shelf.NewSet(curves)
	for i, c := range curves {
		log.Printf("  货架 %d (%s): %d 个槽位", i, c.Name, c.Len())
		for j, p := range c.Positions() {
			log.Printf("    [%d] %s", j, p)
		}
	}
	log.Printf("  总容量: %d", set.Capacity())

	// 2. 依次分配全部槽位
	log.Printf("\n>>> 步骤 2: 按 %s 策略分配", policy)
	p, err := shelf.ParsePolicy(policy)
	if err != nil {
		log.Fatalf("策略无效: %v", err)
	}
	alloc, err := shelf.NewAllocator(p, set)
	if err != nil {
		log.Fatalf("创建分配器失败: %v", err)
	}

	var checks []check
	ordered, distinct := true, true
	seen := make(map[[2]int]bool)
	var prev *shelf.Slot
	for i := 0; i < set.Capacity(); i++ {
		slot, ok := alloc.Acquire(ecs.EntityID(i + 1))
		if !ok {
			log.Printf("  第 %d 次分配失败", i+1)
			ordered = false
			break
		}
		key := [2]int{slot.ShelfIndex, slot.PositionIndex}
		if seen[key] {
			distinct = false
		}
		seen[key] = true
		if prev != nil && !less(*prev, slot) {
			ordered = false
		}
		prev = &slot
	}
	_, overflow := alloc.Acquire(ecs.EntityID(set.Capacity() + 1))
	checks = append(checks,
		check{"分配顺序按 (货架, 位置) 递增", ordered},
		check{"没有重复分配的槽位", distinct},
		check{"货架满时拒绝分配", !overflow},
	)

	// 3. 释放并重新分配
	log.Println("\n>>> 步骤 3: 释放一个槽位")
	if set.Capacity() > 0 {
		target, _ := set.Slot(0, set.ShelfLen(0)/2)
		released, ok := alloc.Release(target.Occupant, target.Position, cfg.Storage.ReleaseTolerance)
		switch p {
		case shelf.PolicyBitmap:
			again, reok := alloc.Acquire(ecs.EntityID(set.Capacity() + 2))
			checks = append(checks,
				check{"释放命中目标槽位", ok && released.PositionIndex == target.PositionIndex},
				check{"释放的槽位可以再次分配", reok && again.ShelfIndex == target.ShelfIndex && again.PositionIndex == target.PositionIndex},
			)
		case shelf.PolicyCursor:
			checks = append(checks, check{"游标策略释放不生效", !ok})
		}
	}

	// 汇总
	log.Println("\n====== 验证结果 ======")
	passed := 0
	for _, c := range checks {
		mark := "✗"
		if c.ok {
			mark = "✓"
			passed++
		}
		log.Printf("  %s %s", mark, c.name)
	}
	log.Printf("  通过: %d/%d 项", passed, len(checks))
	if passed != len(checks) {
		os.Exit(1)
	}
}

func less(a, b shelf.Slot) bool {
	if a.ShelfIndex != b.ShelfIndex {
		return a.ShelfIndex < b.ShelfIndex
	}
	return a.PositionIndex < b.PositionIndex
}
