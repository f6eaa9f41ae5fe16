package solver

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cottand/tsolve/solver/tserr"
	"github.com/pkg/errors"
)

// SubtypeFailure is the innermost reason a subtype or assignability check failed
type SubtypeFailure struct {
	Reason         tserr.Reason
	Source, Target TypeID
	// Property is set for property related reasons
	Property string
	// Index is the parameter or tuple element position, -1 when not applicable
	Index int
}

func (f *SubtypeFailure) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: type %d is not assignable to type %d", f.Reason, f.Source, f.Target)
	if f.Property != "" {
		fmt.Fprintf(&sb, " (property %q)", f.Property)
	}
	if f.Index >= 0 {
		fmt.Fprintf(&sb, " (position %d)", f.Index)
	}
	return sb.String()
}

func (f *SubtypeFailure) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("reason", f.Reason.String()),
		slog.Uint64("source", uint64(f.Source)),
		slog.Uint64("target", uint64(f.Target)),
	}
	if f.Property != "" {
		attrs = append(attrs, slog.String("property", f.Property))
	}
	if f.Index >= 0 {
		attrs = append(attrs, slog.Int("index", f.Index))
	}
	return slog.GroupValue(attrs...)
}

// BoundsViolation reports that the type inferred for Param does not satisfy one of its upper bounds
type BoundsViolation struct {
	Param    TypeID
	Inferred TypeID
	// Lower are the candidates the inferred type was computed from
	Lower []TypeID
	// Upper is the bound that was violated
	Upper TypeID
}

func (b *BoundsViolation) Error() string {
	return fmt.Sprintf("%s: type parameter %d inferred as %d does not satisfy %d", tserr.BoundsViolated, b.Param, b.Inferred, b.Upper)
}

func (b *BoundsViolation) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("param", uint64(b.Param)),
		slog.Uint64("inferred", uint64(b.Inferred)),
		slog.Any("lower", b.Lower),
		slog.Uint64("upper", uint64(b.Upper)),
	)
}

// ArgumentMismatch reports an argument that is not assignable to its instantiated parameter,
// or a wrong argument count (Reason tserr.ArgumentCount, Index holding the count)
type ArgumentMismatch struct {
	Reason    tserr.Reason
	Index     int
	Argument  TypeID
	Parameter TypeID
	// Cause is the nested subtype failure, if any
	Cause *SubtypeFailure
}

func (a *ArgumentMismatch) Error() string {
	if a.Reason == tserr.ArgumentCount {
		return fmt.Sprintf("%s: got %d arguments", a.Reason, a.Index)
	}
	msg := fmt.Sprintf("%s: argument %d of type %d, parameter of type %d", a.Reason, a.Index, a.Argument, a.Parameter)
	if a.Cause != nil {
		msg += ": " + a.Cause.Error()
	}
	return msg
}

func (a *ArgumentMismatch) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("reason", a.Reason.String()),
		slog.Int("index", a.Index),
		slog.Uint64("argument", uint64(a.Argument)),
		slog.Uint64("parameter", uint64(a.Parameter)),
	}
	if a.Cause != nil {
		attrs = append(attrs, slog.Any("cause", a.Cause))
	}
	return slog.GroupValue(attrs...)
}

// Unwrap exposes the nested subtype failure to errors.As
func (a *ArgumentMismatch) Unwrap() error {
	if a.Cause == nil {
		return nil
	}
	return a.Cause
}

// NoOverloadMatched carries the failure of every attempted signature, in declaration order
type NoOverloadMatched struct {
	Attempts []*tserr.Failures
}

func (n *NoOverloadMatched) Error() string {
	return fmt.Sprintf("%s: %d candidates tried", tserr.NoOverloadMatched, len(n.Attempts))
}

func (n *NoOverloadMatched) LogValue() slog.Value {
	attrs := make([]slog.Attr, len(n.Attempts))
	for i, attempt := range n.Attempts {
		attrs[i] = slog.Any(fmt.Sprint("overload", i), attempt)
	}
	return slog.GroupValue(attrs...)
}

// ReasonOf classifies a failure returned by the solver, tserr.None for other errors
func ReasonOf(err error) tserr.Reason {
	var (
		subtype  *SubtypeFailure
		bounds   *BoundsViolation
		argument *ArgumentMismatch
		overload *NoOverloadMatched
	)
	switch {
	case errors.As(err, &argument):
		return argument.Reason
	case errors.As(err, &subtype):
		return subtype.Reason
	case errors.As(err, &bounds):
		return tserr.BoundsViolated
	case errors.As(err, &overload):
		return tserr.NoOverloadMatched
	}
	return tserr.None
}

var (
	_ error          = (*SubtypeFailure)(nil)
	_ slog.LogValuer = (*SubtypeFailure)(nil)
	_ error          = (*BoundsViolation)(nil)
	_ error          = (*ArgumentMismatch)(nil)
	_ error          = (*NoOverloadMatched)(nil)
)
