package lifecycle

import "go.uber.org/fx"

// Module provides the order state machine.
var Module = fx.Provide(NewMachine)
