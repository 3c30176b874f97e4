// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package isds

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// Sensitivity returns the acceleration per count as num/den mg.
func (fs AccFullScale) Sensitivity() (num, den int32) {
	return [...]int32{61, 488, 122, 244}[fs&3], 1000
}

func (fs AccFullScale) String() string {
	return [...]string{"±2g", "±16g", "±4g", "±8g"}[fs&3]
}

// Sensitivity returns the angular rate per count as num/den mdps.
func (fs GyroFullScale) Sensitivity() (num, den int32, err error) {
	switch fs {
	case FullScale125dps:
		return 4375, 1000, nil
	case FullScale250dps:
		return 875, 100, nil
	case FullScale500dps:
		return 175, 10, nil
	case FullScale1000dps:
		return 35, 1, nil
	case FullScale2000dps:
		return 70, 1, nil
	}
	return 0, 1, fmt.Errorf("%w: %d", ErrFullScale, byte(fs))
}

func (fs GyroFullScale) String() string {
	switch fs {
	case FullScale125dps:
		return "±125dps"
	case FullScale250dps:
		return "±250dps"
	case FullScale500dps:
		return "±500dps"
	case FullScale1000dps:
		return "±1000dps"
	case FullScale2000dps:
		return "±2000dps"
	}
	return fmt.Sprintf("GyroFullScale(%d)", byte(fs))
}

// Temperature converts the temperature output: 256 counts per °C, 0 at
// 25 °C.
func Temperature(raw int16) physic.Temperature {
	return physic.ZeroCelsius + 25*physic.Kelvin + physic.Temperature(raw)*physic.Kelvin/256
}

// CentiCelsius converts the temperature output to hundredths of a °C,
// truncated.
func CentiCelsius(raw int16) int16 {
	return int16(int32(raw)*100/256 + 2500)
}
