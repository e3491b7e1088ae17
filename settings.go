/*
Copyright 2023 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package dynasql

import (
	"encoding"
	"fmt"
	"strconv"
)

// StringValue wraps a single setting value, offering best-effort typed
// conversions. Conversion failures return the type's zero value rather than
// an error, mirroring how a missing <setting> is read as "".
type StringValue string

// Bool parses the value as a bool, returning false if it isn't one.
func (s StringValue) Bool() bool {
	v, _ := strconv.ParseBool(string(s))
	return v
}

// Int64 parses the value as an int64, returning 0 if it isn't one.
func (s StringValue) Int64() int64 {
	v, _ := strconv.ParseInt(string(s), 10, 64)
	return v
}

// Uint64 parses the value as a uint64, returning 0 if it isn't one.
func (s StringValue) Uint64() uint64 {
	v, _ := strconv.ParseUint(string(s), 10, 64)
	return v
}

// Float64 parses the value as a float64, returning 0 if it isn't one.
func (s StringValue) Float64() float64 {
	v, _ := strconv.ParseFloat(string(s), 64)
	return v
}

// String returns the underlying string.
func (s StringValue) String() string {
	return string(s)
}

// Unmarshaler decodes the value into target via encoding.TextUnmarshaler.
func (s StringValue) Unmarshaler(target any) error {
	u, ok := target.(encoding.TextUnmarshaler)
	if !ok {
		return fmt.Errorf("dynasql: %T does not implement encoding.TextUnmarshaler", target)
	}
	return u.UnmarshalText([]byte(s))
}

// SettingProvider resolves the key/value <settings> declared in a
// configuration.
type SettingProvider interface {
	Get(key string) StringValue
}

// keyValueSettingProvider is the default SettingProvider, populated by
// XMLSettingsElementParser.
type keyValueSettingProvider map[string]string

var _ SettingProvider = keyValueSettingProvider{}

// Get implements SettingProvider.
func (p keyValueSettingProvider) Get(key string) StringValue {
	return StringValue(p[key])
}
