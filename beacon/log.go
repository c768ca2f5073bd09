package beacon

import (
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

// Logger is the package-wide structured logger. Embedding applications
// override it (or raise the global level) at startup; it is silent by
// default.
var Logger = zerolog.New(os.Stdout)

// Logger context field names, shared across gateway and rest so a single
// correlation ID threads through both a connection attempt and the REST
// calls it triggers.
const (
	LogCtxRequest     = "request"
	LogCtxCorrelation = "xid"
	LogCtxRoute       = "route"
	LogCtxMethod      = "method"
	LogCtxEndpoint    = "endpoint"
	LogCtxRequestBody = "body"

	LogCtxResponse       = "response"
	LogCtxResponseHeader = "header"
	LogCtxResponseBody   = "body"
	LogCtxResponseStatus = "status"

	LogCtxSession      = "session"
	LogCtxPayload      = "payload"
	LogCtxPayloadOp    = "opcode"
	LogCtxPayloadData  = "data"
	LogCtxEvent        = "event"
	LogCtxCommand      = "command"
	LogCtxCommandOp    = "opcode"
	LogCtxCommandName  = "name"
	LogCtxCloseCode    = "code"
	LogCtxBucket       = "bucket"
	LogCtxReset        = "reset"
)

// LogRequest logs the identity of an outbound REST call.
func LogRequest(log *zerolog.Event, xid, routeid, method, endpoint string) *zerolog.Event {
	return log.Timestamp().
		Dict(LogCtxRequest, zerolog.Dict().
			Str(LogCtxCorrelation, xid).
			Str(LogCtxRoute, routeid).
			Str(LogCtxMethod, method).
			Str(LogCtxEndpoint, endpoint),
		)
}

// LogResponse logs the result of an outbound REST call (typically chained
// onto LogRequest).
func LogResponse(log *zerolog.Event, status int, header, body string) *zerolog.Event {
	return log.Dict(LogCtxResponse, zerolog.Dict().
		Int(LogCtxResponseStatus, status).
		Str(LogCtxResponseHeader, header).
		Str(LogCtxResponseBody, body),
	)
}

// LogSession logs a gateway session identity (typically chained with
// LogPayload or LogCommand).
func LogSession(log *zerolog.Event, sessionID string) *zerolog.Event {
	return log.Timestamp().Str(LogCtxSession, sessionID)
}

// LogPayload logs an inbound gateway frame.
func LogPayload(log *zerolog.Event, op int, data json.RawMessage) *zerolog.Event {
	return log.Dict(LogCtxPayload, zerolog.Dict().
		Int(LogCtxPayloadOp, op).
		Bytes(LogCtxPayloadData, data),
	)
}

// LogCommand logs an outbound gateway command.
func LogCommand(log *zerolog.Event, op int, name string) *zerolog.Event {
	return log.Dict(LogCtxCommand, zerolog.Dict().
		Int(LogCtxCommandOp, op).
		Str(LogCtxCommandName, name),
	)
}
