package conversation

import "fmt"

const (
	LineGreeting   = "<emotion value='friendly'/>Hi! Tell me your best knock knock joke. Go ahead!"
	LineWhosThere  = "Who's there?"
	LineNameWho    = "%s who?"
	LineLaugh      = "<emotion value='excited'/>Ha ha! That's funny!"
	LineProcessing = "Processing your joke..."
	LineGoodbye    = "Goodbye!"
	LineApology    = "<emotion value='apologetic'/>Sorry, I couldn't process your joke. Please try again."
)

func RatingLine(rating float64) string {
	return fmt.Sprintf("<emotion value='friendly'/>Thank you! Your joke has been rated %.1f.", rating)
}

func BestJokeLine(content string, rating float64) string {
	return fmt.Sprintf("The current best joke is: %s. It has a rating of %.1f.", content, rating)
}
