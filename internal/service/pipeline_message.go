package service

import (
	"fmt"

	"matterlab/internal/dto"
	"matterlab/internal/pkg/markdown"
	"matterlab/pkg/constants"
)

const emsp = "&emsp;&emsp;&emsp;"

var statusColors = map[string]string{
	constants.PipelineStatusSuccess: "brightgreen",
	constants.PipelineStatusFailed:  "ff0000",
	constants.PipelineStatusWarning: "yellow",
}

// StatusColor 徽章颜色，未知状态为 lightgrey
func StatusColor(status string) string {
	if color, ok := statusColors[status]; ok {
		return color
	}
	return "lightgrey"
}

// FormatPipelineMessage 生成流水线通知的 markdown 文本，调用前 payload 需已 Normalize
func FormatPipelineMessage(w *dto.PipelineWebhook) string {
	attrs := w.ObjectAttributes
	status := w.Status()

	var b markdown.Builder

	buildBadge := markdown.Badge("build", status, StatusColor(status)) + "?logo=gitlab"
	repoBadge := markdown.Badge("repository", w.Project.Name, "white")
	b.NewLine(markdown.Image("gitlab build badge", buildBadge) +
		markdown.ImageLink(w.Project.WebURL, "gitlab repo badge", repoBadge))

	b.NewLine(fmt.Sprintf("%s %s",
		markdown.Image("user avatar", w.User.AvatarURL+" =x25"),
		markdown.Bold(fmt.Sprintf("%s (%s)", w.User.Name, w.User.Username))))

	b.NewLine(fmt.Sprintf("%s - %s",
		markdown.Bold("状态 "+markdown.Link(attrs.URL, fmt.Sprintf("Pipeline #%d", attrs.IID))),
		status))

	branchURL := w.Project.WebURL + "/-/tree/" + attrs.Ref
	cells := []string{
		markdown.Bold("分支: ") + markdown.Link(branchURL, attrs.Ref) + emsp,
		markdown.Bold("提交: ") + markdown.Link(w.Commit.URL, w.Commit.Title),
	}

	if job := failureJob(w); job != nil {
		cells = append(cells,
			markdown.Bold("失败阶段: ")+job.Stage+emsp,
			markdown.Bold("失败任务: ")+job.Name,
		)
	}

	b.Table(2, cells)

	return b.String()
}

// failureJob 失败或警告状态下展示的 job，优先不允许失败的 job
func failureJob(w *dto.PipelineWebhook) *dto.PipelineBuild {
	status := w.Status()
	if status != constants.PipelineStatusFailed && status != constants.PipelineStatusWarning {
		return nil
	}
	if job := w.FailedJob(); job != nil {
		return job
	}
	return w.AllowedFailedJob()
}
