// Package command converts fully assembled RESP values into typed,
// validated commands.
//
// Parse enforces the arity and type contract of each verb; it never
// produces a partially constructed command. Failures are reported as
// wrapped sentinel errors so callers can distinguish a malformed
// argument list from a numeric value that does not fit.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mistkv/mistkv-go/internal/resp"
)

var (
	// ErrArgument marks wrong arity, wrong element types, and unknown
	// verbs or flags.
	ErrArgument = errors.New("command: argument error")

	// ErrConversion marks a numeric argument outside the representable
	// range (e.g. a negative or overflowing PX count).
	ErrConversion = errors.New("command: conversion error")
)

// Kind identifies a command verb.
type Kind uint8

const (
	KindPing Kind = iota
	KindEcho
	KindGet
	KindSet
)

// Command is one validated client operation.
//
// ExpiresAt is the absolute deadline computed from a PX flag; the zero
// time means no expiry. Value is only meaningful for Set.
type Command struct {
	Kind      Kind
	Key       string
	Text      string
	Value     resp.Value
	ExpiresAt time.Time
}

// Parse converts a complete value tree into a Command.
//
// A bare string is accepted for PING only. An array is interpreted as
// [verb, args...] with a case-insensitive verb.
func Parse(v resp.Value) (Command, error) {
	return parseAt(v, time.Now())
}

// parseAt is Parse with an explicit clock, for deterministic tests.
func parseAt(v resp.Value, now time.Time) (Command, error) {
	switch v.Kind() {
	case resp.KindBulkString:
		if strings.EqualFold(v.Text(), "ping") {
			return Command{Kind: KindPing}, nil
		}
		return Command{}, fmt.Errorf("%w: not implemented: %s", ErrArgument, v.Text())

	case resp.KindArray:
		return parseArray(v, now)

	default:
		return Command{}, fmt.Errorf("%w: wrong argument type", ErrArgument)
	}
}

func parseArray(v resp.Value, now time.Time) (Command, error) {
	if v.Len() == 0 {
		return Command{}, fmt.Errorf("%w: empty command", ErrArgument)
	}

	verb := v.Elem(0)
	if verb.Kind() != resp.KindBulkString {
		return Command{}, fmt.Errorf("%w: wrong argument type", ErrArgument)
	}

	switch strings.ToLower(verb.Text()) {
	case "ping":
		// Trailing args are ignored, matching the wire contract.
		return Command{Kind: KindPing}, nil

	case "echo":
		arg, err := oneStringArg(v, "ECHO")
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindEcho, Text: arg}, nil

	case "get":
		key, err := oneStringArg(v, "GET")
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: KindGet, Key: key}, nil

	case "set":
		return parseSet(v, now)

	default:
		return Command{}, fmt.Errorf("%w: not implemented: %s", ErrArgument, verb.Text())
	}
}

// oneStringArg enforces exactly one trailing string argument.
func oneStringArg(v resp.Value, verb string) (string, error) {
	if v.Len() != 2 {
		return "", fmt.Errorf("%w: %s: wrong number of arguments: %d", ErrArgument, verb, v.Len()-1)
	}
	arg := v.Elem(1)
	if arg.Kind() != resp.KindBulkString {
		return "", fmt.Errorf("%w: %s: wrong argument type", ErrArgument, verb)
	}
	return arg.Text(), nil
}

// parseSet handles "SET key value" and "SET key value PX millis".
// Any other element count, or any flag other than PX, is rejected.
func parseSet(v resp.Value, now time.Time) (Command, error) {
	switch v.Len() {
	case 3, 5:
	default:
		return Command{}, fmt.Errorf("%w: SET: wrong number of arguments: %d", ErrArgument, v.Len()-1)
	}

	key := v.Elem(1)
	if key.Kind() != resp.KindBulkString {
		return Command{}, fmt.Errorf("%w: SET: wrong argument type", ErrArgument)
	}

	cmd := Command{
		Kind:  KindSet,
		Key:   key.Text(),
		Value: v.Elem(2),
	}

	if v.Len() == 5 {
		flag := v.Elem(3)
		if flag.Kind() != resp.KindBulkString {
			return Command{}, fmt.Errorf("%w: SET: wrong argument type", ErrArgument)
		}
		if !strings.EqualFold(flag.Text(), "px") {
			return Command{}, fmt.Errorf("%w: SET: flag not implemented: %s", ErrArgument, flag.Text())
		}
		millis, err := expiryMillis(v.Elem(4))
		if err != nil {
			return Command{}, err
		}
		cmd.ExpiresAt = now.Add(time.Duration(millis) * time.Millisecond)
	}

	return cmd, nil
}

// expiryMillis extracts a millisecond count from an integer value or a
// numeric string. Negative and out-of-range counts are conversion
// failures, distinct from a malformed argument.
func expiryMillis(v resp.Value) (int64, error) {
	switch v.Kind() {
	case resp.KindInteger:
		n := v.Int64()
		if n < 0 {
			return 0, fmt.Errorf("%w: negative expiry %d", ErrConversion, n)
		}
		return n, nil

	case resp.KindBulkString:
		n, err := strconv.ParseInt(v.Text(), 10, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return 0, fmt.Errorf("%w: expiry %q out of range", ErrConversion, v.Text())
			}
			return 0, fmt.Errorf("%w: SET: expiry must be numeric, got %q", ErrArgument, v.Text())
		}
		if n < 0 {
			return 0, fmt.Errorf("%w: negative expiry %d", ErrConversion, n)
		}
		return n, nil

	default:
		return 0, fmt.Errorf("%w: SET: wrong argument type", ErrArgument)
	}
}
