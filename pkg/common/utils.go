// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// LogJSONFormatter is printing the data in log
func LogJSONFormatter(data interface{}) string {
	response, err := json.Marshal(data)
	if err != nil {
		logrus.Errorf("failed to marshal json.")

		return ""
	}

	return string(response)
}
