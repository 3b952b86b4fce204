package ai

import (
	"bytes"
	"fmt"
	"text/template"
)

// PromptData holds the parameters for template rendering
type PromptData struct {
	Diff string
}

// RenderPrompt renders a prompt template with the provided data
func RenderPrompt(name, tmplStr string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("error parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error executing template %s: %w", name, err)
	}

	return buf.String(), nil
}

const (
	reviewPromptTemplateEN = `You are a senior software engineer. Review the following code change, find problems and suggest improvements.

Code change:
{{.Diff}}

Review dimensions (grade every issue High / Medium / Low):
1. Correctness: logic errors, edge cases, error handling
2. Security: vulnerabilities, resource management, sensitive data
3. Performance: bottlenecks, scalability
4. Maintainability: naming, structure, comments, conventions
5. Testability: dependencies, ease of mocking

Output format:
## Code Review Report
### 1. Summary
* **Overall assessment:** (short description of code quality and the main problems)
* **Issue count:** High(x) Medium(y) Low(z)
### 2. Issues
**[Level]** - **[Category]**: title
* **Location:** ` + "`file:line`" + `
* **Problem:** description
* **Suggestion:** how to fix it
### 3. Strengths
(what the change does well)
### 4. Next steps
1. Must fix: High issues
2. Should fix: Medium issues
3. Consider: Low issues`

	reviewPromptTemplateZH = `你是资深技术专家，请对以下代码进行评审，发现问题并提供改进建议。

代码变更：
{{.Diff}}

评审维度（按高/中/低分级）：
1. 正确性：逻辑错误、边界条件、异常处理
2. 安全性：漏洞、资源管理、敏感信息
3. 性能：瓶颈、可扩展性
4. 可维护性：命名、结构、注释、规范
5. 可测试性：依赖、Mock难度

输出格式：
## 代码评审报告
### 一、总结
* **整体评价：** （概述代码质量和主要问题）
* **问题统计：** 高（x） 中（y） 低（z）
### 二、详细问题
**【等级】** - **【类别】**：标题
* **位置：** ` + "`文件:行号`" + `
* **问题：** 描述
* **建议：** 改进方案
### 三、优点
（代码亮点）
### 四、后续步骤
1. 必须修复：高等级问题
2. 建议优化：中等级问题
3. 可考虑：低等级问题`
)

// GetReviewPromptTemplate returns the review template for the language the report should be written in.
func GetReviewPromptTemplate(lang string) string {
	switch lang {
	case "zh":
		return reviewPromptTemplateZH
	default:
		return reviewPromptTemplateEN
	}
}

// BuildReviewPrompt substitutes diff into the review template.
func BuildReviewPrompt(lang, diff string) (string, error) {
	return RenderPrompt("review_"+lang, GetReviewPromptTemplate(lang), PromptData{Diff: diff})
}
