package grpc

import (
	"context"
	"errors"

	cderror "github.com/msto63/cobdoc/foundation/core/error"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToStatus converts err into a gRPC status error. Coded foundation errors
// keep their message; anything unrecognized becomes Internal.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	return status.Error(CodeFor(cderror.GetCode(err)), err.Error())
}

// CodeFor maps a foundation error code to a gRPC code
func CodeFor(code cderror.Code) codes.Code {
	switch code {
	case cderror.CodeSyntax, cderror.CodeUnexpectedEOF, cderror.CodeLexical,
		cderror.CodeInvalidInput, cderror.CodeInputTooLarge:
		return codes.InvalidArgument
	case cderror.CodeNotFound:
		return codes.NotFound
	case cderror.CodeConfigError:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}
