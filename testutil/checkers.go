// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2026 Canonical Ltd
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */
// Package testutil provides gocheck checkers shared by the tests.
package testutil

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/check.v1"
)

type containsChecker struct {
	*check.CheckerInfo
}

// Contains checks that a string holds a substring, or that a slice or
// array holds an element equal to the needle.
var Contains check.Checker = &containsChecker{
	&check.CheckerInfo{Name: "Contains", Params: []string{"haystack", "needle"}},
}

func (*containsChecker) Check(params []interface{}, names []string) (bool, string) {
	haystack := reflect.ValueOf(params[0])
	switch haystack.Kind() {
	case reflect.String:
		needle, ok := params[1].(string)
		if !ok {
			return false, fmt.Sprintf("haystack is a string but needle is a %T", params[1])
		}
		return strings.Contains(haystack.String(), needle), ""
	case reflect.Slice, reflect.Array:
		needle := reflect.ValueOf(params[1])
		if elem := haystack.Type().Elem(); !needle.IsValid() || elem != needle.Type() {
			return false, fmt.Sprintf("haystack contains items of type %s but needle is a %T", elem, params[1])
		}
		for i := 0; i < haystack.Len(); i++ {
			if reflect.DeepEqual(haystack.Index(i).Interface(), params[1]) {
				return true, ""
			}
		}
		return false, ""
	}
	return false, fmt.Sprintf("haystack is of unsupported type %T", params[0])
}

type errorIsChecker struct {
	*check.CheckerInfo
}

// ErrorIs checks the obtained error with errors.Is. A nil error only
// matches a nil target.
var ErrorIs check.Checker = &errorIsChecker{
	&check.CheckerInfo{Name: "ErrorIs", Params: []string{"error", "target"}},
}

func (*errorIsChecker) Check(params []interface{}, names []string) (bool, string) {
	if params[0] == nil {
		return params[1] == nil, ""
	}
	err, ok := params[0].(error)
	if !ok {
		return false, "first argument must be an error"
	}
	target, ok := params[1].(error)
	if !ok {
		return false, "second argument must be an error"
	}
	return errors.Is(err, target), ""
}
