package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/copyleftdev/lplab/internal/errors"
	"github.com/copyleftdev/lplab/internal/lp"
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type solveParams struct {
	Problem *lp.Definition `json:"problem"`
}

type idParams struct {
	ID string `json:"id"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests. Methods:
//
//	lp.solve  {"problem": {...}}  -> report document
//	lp.get    {"id": "..."}       -> report document
//	lp.delete {"id": "..."}       -> {"deleted": "..."}
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&request); err != nil {
		s.respondWithError(w, apperrors.CodeParseError, "Parse error", nil)
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" || request.Method == "" {
		s.respondWithError(w, apperrors.CodeInvalidRequest, "Invalid Request", request.ID)
		return
	}

	var result json.RawMessage
	var err error

	switch request.Method {
	case "lp.solve":
		var params solveParams
		if err = decodeParams(request.Params, &params); err == nil {
			if params.Problem == nil {
				err = apperrors.Invalid("problem is required")
			} else {
				result, _, err = s.solve(r.Context(), *params.Problem)
			}
		}
	case "lp.get":
		var params idParams
		if err = decodeParams(request.Params, &params); err == nil {
			result, err = s.get(r.Context(), params.ID)
		}
	case "lp.delete":
		var params idParams
		if err = decodeParams(request.Params, &params); err == nil {
			if err = s.delete(r.Context(), params.ID); err == nil {
				result, err = json.Marshal(map[string]string{"deleted": params.ID})
			}
		}
	default:
		s.respondWithError(w, apperrors.CodeMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, apperrors.RPCCode(err), err.Error(), request.ID)
		return
	}

	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: requestID(request.ID), Result: result})
}

func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return apperrors.Invalid("missing required parameters")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.Invalid("invalid parameters: %v", err)
	}
	return nil
}

// requestID renders a missing id as null.
func requestID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

// respondWithError sends a JSON-RPC 2.0 error response. Transport status is
// always 200; the failure is in the body.
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id json.RawMessage) {
	s.logger.Debug("rpc error", map[string]interface{}{
		"code":    code,
		"message": message,
	})
	writeJSON(w, http.StatusOK, rpcResponse{
		JSONRPC: "2.0",
		ID:      requestID(id),
		Error:   &rpcError{Code: code, Message: message},
	})
}
