// internal/engine/commands.go
package engine

import (
	"context"
	encjson "encoding/json"

	"github.com/xkilldash9x/drover/api/schemas"
)

// Handle dispatches one control-protocol command to the engine. Every
// request gets a response; failures are reported in the envelope rather than
// as transport errors.
func (e *Engine) Handle(ctx context.Context, cmd schemas.Command) schemas.Response {
	switch cmd.Type {
	case schemas.CmdStartAutomation:
		var req schemas.StartRequest
		if err := encjson.Unmarshal(cmd.Data, &req); err != nil {
			return schemas.Fail("decoding start request: %v", err)
		}
		if req.WebsiteConfig != nil {
			if err := req.WebsiteConfig.Validate(); err != nil {
				return schemas.Fail("invalid website config: %v", err)
			}
		}
		id, err := e.Start(ctx, req.ScenarioID, req.WebsiteConfig)
		if err != nil {
			return schemas.Fail("%v", err)
		}
		return schemas.OK(schemas.StartResult{SessionID: id})

	case schemas.CmdStopAutomation:
		if err := e.Stop(); err != nil {
			return schemas.Fail("%v", err)
		}
		return schemas.OK(nil)

	case schemas.CmdPauseAutomation:
		if err := e.Pause(); err != nil {
			return schemas.Fail("%v", err)
		}
		return schemas.OK(nil)

	case schemas.CmdResumeAutomation:
		if err := e.Resume(); err != nil {
			return schemas.Fail("%v", err)
		}
		return schemas.OK(nil)

	case schemas.CmdGetStatus:
		return schemas.OK(e.Status())

	case schemas.CmdTestSelector:
		var req schemas.TestSelectorRequest
		if err := encjson.Unmarshal(cmd.Data, &req); err != nil {
			return schemas.Fail("decoding selector request: %v", err)
		}
		if req.Selector == "" {
			return schemas.Fail("selector is required")
		}
		return schemas.OK(e.TestSelector(ctx, req.Selector))

	case schemas.CmdLogAction:
		var req schemas.LogActionRequest
		if err := encjson.Unmarshal(cmd.Data, &req); err != nil {
			return schemas.Fail("decoding log request: %v", err)
		}
		e.LogAction(req.ActionType, req.Context)
		return schemas.OK(nil)

	default:
		return schemas.Fail("unknown command type %q", cmd.Type)
	}
}
