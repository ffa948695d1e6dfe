package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matterlab/internal/dto"
)

func TestStatusColor(t *testing.T) {
	assert.Equal(t, "brightgreen", StatusColor("success"))
	assert.Equal(t, "ff0000", StatusColor("failed"))
	assert.Equal(t, "yellow", StatusColor("warning"))
	assert.Equal(t, "lightgrey", StatusColor("manual"))
	assert.Equal(t, "lightgrey", StatusColor(""))
}

func TestFormatPipelineMessageSuccess(t *testing.T) {
	msg := FormatPipelineMessage(samplePipeline("success"))
	lines := strings.Split(msg, "\n")
	require.GreaterOrEqual(t, len(lines), 7)

	assert.Equal(t,
		"![gitlab build badge](https://img.shields.io/badge/build-success-brightgreen?logo=gitlab)"+
			"[![gitlab repo badge](https://img.shields.io/badge/repository-demo--app-white)](https://gitlab.example.com/team/demo-app)",
		lines[0])
	assert.Equal(t, "![user avatar](https://gitlab.example.com/uploads/jdoe.png =x25) **Jane Doe (jdoe)**", lines[1])
	assert.Equal(t, "**状态 [Pipeline #42](https://gitlab.example.com/team/demo-app/-/pipelines/1001)** - success", lines[2])
	assert.Equal(t, "", lines[3])
	assert.Equal(t,
		"|**分支: **[main](https://gitlab.example.com/team/demo-app/-/tree/main)&emsp;&emsp;&emsp;"+
			`|**提交: **[Fix login \[urgent\]](https://gitlab.example.com/team/demo-app/-/commit/abc123)|`,
		lines[4])
	assert.Equal(t, "| :--- | :--- |", lines[5])

	assert.NotContains(t, msg, "失败阶段")
	assert.False(t, strings.HasPrefix(msg, " "))
	assert.False(t, strings.HasPrefix(msg, "\n"))
}

func TestFormatPipelineMessageWarningShowsAllowedFailure(t *testing.T) {
	w := samplePipeline("success",
		dto.PipelineBuild{Stage: "lint", Name: "eslint", Status: "failed", AllowFailure: true},
	)
	require.Equal(t, "warning", w.Status())

	msg := FormatPipelineMessage(w)
	assert.Contains(t, msg, "build-warning-yellow")
	assert.Contains(t, msg, "|**失败阶段: **lint&emsp;&emsp;&emsp;|**失败任务: **eslint|")
}

func TestFormatPipelineMessagePrefersHardFailure(t *testing.T) {
	w := samplePipeline("failed",
		dto.PipelineBuild{Stage: "lint", Name: "eslint", Status: "failed", AllowFailure: true},
		dto.PipelineBuild{Stage: "test", Name: "unit", Status: "failed"},
	)
	msg := FormatPipelineMessage(w)
	assert.Contains(t, msg, "**失败任务: **unit")
	assert.NotContains(t, msg, "eslint")
}

func TestFormatPipelineMessageEscapesCells(t *testing.T) {
	w := samplePipeline("success")
	w.Commit.Title = "a | b"
	w.Project.Name = "my app_v2"

	msg := FormatPipelineMessage(w)
	assert.Contains(t, msg, `[a \| b]`)
	assert.Contains(t, msg, "repository-my_app__v2-white")
}
