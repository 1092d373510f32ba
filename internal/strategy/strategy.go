package strategy

import "github.com/txf-quant/txfbt/pkg/types"

// Strategy is the interface the engine drives once per bar. OnInit
// runs once before the first bar, OnBar once per bar thereafter, and
// OnStop once after the last bar.
type Strategy interface {
	OnInit(ctx *Context)
	OnBar(ctx *Context, bar types.Bar)
	OnStop(ctx *Context)
}
