package trainer

import "github.com/chewxy/math32"

// rule updates p[j] in place from the batch gradient gij, using the
// accumulators gsum and xsum where the method keeps them.
type rule func(c *Config, k int, p, gsum, xsum []float32, j int, gij float32)

var rules = map[Method]rule{
	MethodSGD:      sgd,
	MethodNesterov: nesterov,
	MethodAdagrad:  adagrad,
	MethodAdadelta: adadelta,
	MethodAdam:     adam,
}

func sgd(c *Config, _ int, p, gsum, _ []float32, j int, gij float32) {
	if c.Momentum <= 0 {
		p[j] -= c.LearningRate * gij
		return
	}
	dx := c.Momentum*gsum[j] - c.LearningRate*gij
	gsum[j] = dx
	p[j] += dx
}

func nesterov(c *Config, _ int, p, gsum, _ []float32, j int, gij float32) {
	prev := gsum[j]
	gsum[j] = gsum[j]*c.Momentum + c.LearningRate*gij
	p[j] += c.Momentum*prev - (1+c.Momentum)*gsum[j]
}

func adagrad(c *Config, _ int, p, gsum, _ []float32, j int, gij float32) {
	gsum[j] += gij * gij
	p[j] -= c.LearningRate / math32.Sqrt(gsum[j]+c.Eps) * gij
}

// adadelta lets xsum lag gsum by one step.
func adadelta(c *Config, _ int, p, gsum, xsum []float32, j int, gij float32) {
	gsum[j] = c.Ro*gsum[j] + (1-c.Ro)*gij*gij
	dx := -math32.Sqrt((xsum[j]+c.Eps)/(gsum[j]+c.Eps)) * gij
	xsum[j] = c.Ro*xsum[j] + (1-c.Ro)*dx*dx
	p[j] += dx
}

// adam scales both moments by (1-β^k). Note this multiplies where the
// published algorithm divides; trained models depend on this exact rule.
func adam(c *Config, k int, p, gsum, xsum []float32, j int, gij float32) {
	gsum[j] = gsum[j]*c.Beta1 + (1-c.Beta1)*gij
	xsum[j] = xsum[j]*c.Beta2 + (1-c.Beta2)*gij*gij
	m := gsum[j] * (1 - math32.Pow(c.Beta1, float32(k)))
	v := xsum[j] * (1 - math32.Pow(c.Beta2, float32(k)))
	p[j] -= c.LearningRate * m / (math32.Sqrt(v) + c.Eps)
}
