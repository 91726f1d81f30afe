package scorer

import (
	"fmt"

	"github.com/giantswarm/llm-bench/internal/llm"
)

// judgeSystemPrompt instructs the judge to answer with a bare decision.
const judgeSystemPrompt = `You are grading answers to questions. You are given context extracted from a longer document, a question, and an answer.
Decide whether the answer is correct and reply with a single decision and nothing else: 1, 0 or NA.
1 means the answer is correct: it answers the question and is supported by the context.
0 means the answer is incorrect: it conflicts with the context, is irrelevant to it, or is factually wrong.
NA means you cannot tell. Do not guess.
If the context does not cover the question and the answer says so, the answer is correct.`

type judgeExample struct {
	question, context, answer, decision string
}

var judgeExamples = []judgeExample{
	{
		question: "Which kubectl command shows the pods in every namespace?",
		context:  "kubectl get lists resources. By default it only covers the current namespace; the --all-namespaces flag, or its short form -A, widens the listing to every namespace in the cluster.",
		answer:   "kubectl get pods -A",
		decision: "1",
	},
	{
		question: "What object keeps a fixed number of identical pods running?",
		context:  "A ReplicaSet's purpose is to maintain a stable set of replica pods running at any given time. It is often used to guarantee the availability of a specified number of identical pods. Deployments manage ReplicaSets on your behalf.",
		answer:   "A ConfigMap",
		decision: "0",
	},
	{
		question: "Which port does the kubelet API listen on?",
		context:  "Nodes run a container runtime, kube-proxy and the kubelet. The kubelet registers the node with the API server and reports its status.",
		answer:   "Port 10250",
		decision: "NA",
	},
}

func judgeQuestion(question, ctxText, answer string) string {
	return fmt.Sprintf("QUESTION: %s\n========\nCONTEXT: %s\n========\nANSWER: %s\nDECISION:", question, ctxText, answer)
}

func judgeFewShot() []llm.Message {
	msgs := make([]llm.Message, 0, 2*len(judgeExamples))
	for _, ex := range judgeExamples {
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: judgeQuestion(ex.question, ex.context, ex.answer)},
			llm.Message{Role: llm.RoleAssistant, Content: ex.decision},
		)
	}
	return msgs
}
