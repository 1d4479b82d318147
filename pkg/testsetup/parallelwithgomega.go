// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"testing"

	"github.com/onsi/gomega"

	"github.com/kotek-7/minpuzz-core/pkg/envelope"
)

type GomegaWithScope struct {
	TestScope *envelope.Scope
	*gomega.GomegaWithT
}

func ParallelWithGomega(t *testing.T) GomegaWithScope {
	t.Parallel()
	return GomegaWithScope{NewTestScope(), gomega.NewGomegaWithT(t)}
}

func WithGomega(t *testing.T) GomegaWithScope {
	return GomegaWithScope{NewTestScope(), gomega.NewGomegaWithT(t)}
}
