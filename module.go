package pcp

import (
	"context"

	"go.uber.org/fx"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// 配置（可选，缺省使用 DefaultConfig）
	Config *Config `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// Handle PCP 会话句柄
	Handle *Handle
}

// ============================================================================
//                              服务提供
// ============================================================================

// ProvideHandle 创建 PCP 会话句柄
func ProvideHandle(input ModuleInput) (ModuleOutput, error) {
	opts := []Option{}
	if input.Config != nil {
		opts = append(opts, WithConfig(input.Config))
	}

	h, err := NewClient(opts...)
	if err != nil {
		return ModuleOutput{}, err
	}

	return ModuleOutput{Handle: h}, nil
}

// ============================================================================
//                              模块定义
// ============================================================================

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("pcp",
		fx.Provide(ProvideHandle),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC     fx.Lifecycle
	Handle *Handle
}

// registerLifecycle 注册生命周期
//
// 应用停止时终止会话（Shutdown 幂等，用户已手动终止也安全）。
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			input.Handle.Shutdown()
			return nil
		},
	})
}
